// Package output formats scan results for the CLI as JSON records or
// highlighted text.
package output

import (
	"encoding/json"
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether w is a file connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// MarshalJSONPretty marshals v, indented with 2 spaces when pretty is true
// and as one compact line otherwise. A line-per-record stream stays
// parseable with pretty off.
func MarshalJSONPretty(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
