package output

import (
	"encoding/json"
	"io"
	"os"
)

// JSONPrinter prints indented JSON.
type JSONPrinter struct {
	// Writer defaults to stdout.
	Writer io.Writer
}

// Print renders JSON output.
func (p JSONPrinter) Print(v any) error {
	w := p.Writer
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
