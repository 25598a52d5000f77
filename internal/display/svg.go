// FILE: internal/display/svg.go
package display

import (
	"fmt"
	"io"

	"chesspipe/internal/board"

	svg "github.com/ajstarks/svgo"
)

const (
	lightSquare = "fill:#f0d9b5"
	darkSquare  = "fill:#b58863"
	labelStyle  = "font-family:sans-serif;fill:#404040"
)

var pieceGlyphs = map[byte]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

// WriteSVG draws b from white's side. size is the edge of one square in
// pixels; a margin of half a square carries the coordinates.
func WriteSVG(w io.Writer, b *board.Board, size int) {
	if size <= 0 {
		size = 45
	}
	margin := size / 2
	edge := 8*size + 2*margin

	canvas := svg.New(w)
	canvas.Start(edge, edge)
	canvas.Rect(0, 0, edge, edge, "fill:#ffffff")

	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			x := margin + f*size
			y := margin + r*size
			style := lightSquare
			if (r+f)%2 == 1 {
				style = darkSquare
			}
			canvas.Rect(x, y, size, size, style)

			square := fmt.Sprintf("%c%c", 'a'+f, '8'-r)
			if glyph, ok := pieceGlyphs[b.GetPieceAt(square)]; ok {
				canvas.Text(x+size/2, y+size*4/5, glyph,
					fmt.Sprintf("text-anchor:middle;font-size:%dpx", size*4/5))
			}
		}
	}

	labelSize := fmt.Sprintf("%s;font-size:%dpx;text-anchor:middle", labelStyle, margin*3/4)
	for i := 0; i < 8; i++ {
		canvas.Text(margin+i*size+size/2, edge-margin/4, string(rune('a'+i)), labelSize)
		canvas.Text(margin/2, margin+i*size+size/2+margin/4, string(rune('8'-i)), labelSize)
	}

	canvas.End()
}
