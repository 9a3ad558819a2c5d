package output

// Printer renders a command result.
type Printer interface {
	Print(v any) error
}
