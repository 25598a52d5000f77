// FILE: internal/board/replay.go
package board

import (
	"fmt"
	"strings"

	"chesspipe/internal/core"

	"github.com/notnil/chess"
)

// Step is the outcome of applying one move
type Step struct {
	Color core.Color // side that made the move
	SAN   string     // rendered against the position before the move
	FEN   string     // position after the move
}

// Replayer applies a game's moves in order against one running position.
// It is owned by a single game and must not be shared.
type Replayer struct {
	pos *chess.Position
}

// NewReplayer seeds the running position, empty startFEN means the standard start
func NewReplayer(startFEN string) (*Replayer, error) {
	if startFEN == "" {
		startFEN = StartingFEN
	}
	opt, err := chess.FEN(startFEN)
	if err != nil {
		return nil, fmt.Errorf("invalid start position %q: %w", startFEN, err)
	}
	return &Replayer{pos: chess.NewGame(opt).Position()}, nil
}

// Turn returns the side to move in the running position
func (r *Replayer) Turn() core.Color {
	return fromChessColor(r.pos.Turn())
}

// FEN returns the running position
func (r *Replayer) FEN() string {
	return r.pos.String()
}

// Apply plays san on the running position. The mover is read before the
// position changes. An illegal or unparsable move leaves the position as is.
func (r *Replayer) Apply(san string) (Step, error) {
	mover := fromChessColor(r.pos.Turn())

	move, ok := r.find(san)
	if !ok {
		return Step{}, fmt.Errorf("illegal or malformed move %q", san)
	}
	rendered := chess.AlgebraicNotation{}.Encode(r.pos, move)

	r.pos = r.pos.Update(move)

	return Step{
		Color: mover,
		SAN:   rendered,
		FEN:   r.pos.String(),
	}, nil
}

var decoders = []chess.Decoder{chess.AlgebraicNotation{}, chess.LongAlgebraicNotation{}}

// find resolves san against the running position. Redundant disambiguation
// such as "Ngf3" is accepted, an ambiguous move is not.
func (r *Replayer) find(san string) (*chess.Move, bool) {
	text := strings.TrimSpace(san)
	if text == "" {
		return nil, false
	}
	for _, d := range decoders {
		if m, err := d.Decode(r.pos, text); err == nil {
			return m, true
		}
	}

	// Spellings the decoders reject: "0-0" castling and "exd8Q" promotion
	want := normalizeSAN(text)
	notation := chess.AlgebraicNotation{}
	for _, m := range r.pos.ValidMoves() {
		if normalizeSAN(notation.Encode(r.pos, m)) == want {
			return m, true
		}
	}
	return nil, false
}

var sanNoise = strings.NewReplacer("+", "", "#", "", "=", "", "!", "", "?", "", "e.p.", "")

func normalizeSAN(s string) string {
	s = sanNoise.Replace(s)
	switch s {
	case "0-0":
		return "O-O"
	case "0-0-0":
		return "O-O-O"
	}
	return s
}

func fromChessColor(c chess.Color) core.Color {
	if c == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}
