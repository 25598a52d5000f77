// FILE: internal/board/board.go
package board

import (
	"fmt"
	"strings"

	"chesspipe/internal/core"

	"github.com/notnil/chess"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Board is a decoded position key, used for display and for sanity checks
// before a key is handed to an engine. Decoding follows the same rules as
// replay.
type Board struct {
	pos *chess.Position
}

func ParseFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	return &Board{pos: chess.NewGame(opt).Position()}, nil
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		rank := byte('8' - r)
		sb.WriteString(fmt.Sprintf("%c ", rank))
		for f := byte(0); f < 8; f++ {
			piece := b.GetPieceAt(string([]byte{'a' + f, rank}))
			if piece == 0 {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", piece))
			}
		}
		sb.WriteString(fmt.Sprintf(" %c\n", rank))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

func (b *Board) Turn() core.Color {
	return fromChessColor(b.pos.Turn())
}

// GetPieceAt returns the FEN letter on square such as "e4", 0 when empty
func (b *Board) GetPieceAt(square string) byte {
	if len(square) != 2 {
		return 0
	}
	if square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return 0
	}
	sq := chess.NewSquare(chess.File(square[0]-'a'), chess.Rank(square[1]-'1'))
	return pieceLetter(b.pos.Board().Piece(sq))
}

func pieceLetter(p chess.Piece) byte {
	if p == chess.NoPiece {
		return 0
	}
	letter := p.Type().String()
	if letter == "" {
		return 0
	}
	if p.Color() == chess.White {
		letter = strings.ToUpper(letter)
	}
	return letter[0]
}
