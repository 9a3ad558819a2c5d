package core

// Config fills in whatever a bridgectl invocation leaves out: who is asking,
// which bridge answers and which room is meant.
type Config struct {
	Identity      string
	NodeID        string
	DefaultDevice string
	// Aliases maps short names to room names.
	Aliases map[string]string
}
