// FILE: internal/display/format.go
package display

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrettyPrintJSON writes v as indented JSON
func (p Palette) PrettyPrintJSON(w io.Writer, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", p.Red, err.Error(), p.Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}
