// FILE: internal/display/board.go
package display

import (
	"fmt"
	"io"
	"strings"

	"chesspipe/internal/core"
)

// RenderBoard writes an ASCII board from board.ToASCII with colored pieces
func (p Palette) RenderBoard(w io.Writer, asciiBoard string) {
	lines := strings.Split(asciiBoard, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		isFileLine := (i == 0) || (i == len(lines)-1)

		var sb strings.Builder
		for _, char := range line {
			switch {
			case char >= 'a' && char <= 'h' && isFileLine:
				// File letters
				fmt.Fprintf(&sb, "%s%c%s", p.Cyan, char, p.Reset)
			case char >= 'A' && char <= 'Z':
				// White pieces
				fmt.Fprintf(&sb, "%s%c%s", p.Blue, char, p.Reset)
			case char >= 'a' && char <= 'z' && !isFileLine:
				// Black pieces
				fmt.Fprintf(&sb, "%s%c%s", p.Red, char, p.Reset)
			case char >= '1' && char <= '8':
				// Rank numbers
				fmt.Fprintf(&sb, "%s%c%s", p.Cyan, char, p.Reset)
			default:
				sb.WriteRune(char)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// ColorForTurn returns colored turn indicator
func (p Palette) ColorForTurn(c core.Color) string {
	if c.IsWhite() {
		return p.Blue + "White" + p.Reset
	}
	return p.Red + "Black" + p.Reset
}

// Eval colors a value by the side it favours
func (p Palette) Eval(e core.Eval) string {
	if !e.IsSet() {
		return "-"
	}
	positive := false
	if v, ok := e.Pawns(); ok {
		positive = v >= 0
	} else if n, ok := e.MateIn(); ok {
		positive = n > 0
	}
	if positive {
		return p.Blue + e.String() + p.Reset
	}
	return p.Red + e.String() + p.Reset
}
