// FILE: internal/display/colors.go
package display

import (
	"os"

	"golang.org/x/term"
)

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Palette is the set of codes a renderer writes, empty when colors are off
type Palette struct {
	Reset, Red, Green, Yellow, Blue, Cyan string
}

var colorPalette = Palette{Reset: Reset, Red: Red, Green: Green, Yellow: Yellow, Blue: Blue, Cyan: Cyan}

// PaletteFor returns colors only when f is a terminal
func PaletteFor(f *os.File) Palette {
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return colorPalette
	}
	return Palette{}
}

// Colors returns the full palette regardless of the output
func Colors() Palette {
	return colorPalette
}

// Prompt returns a colored prompt string
func (p Palette) Prompt(text string) string {
	return p.Yellow + text + " > " + p.Reset
}
