// FILE: internal/pgn/tokenize.go
package pgn

import (
	"errors"
	"strings"

	"github.com/corentings/chess/v2"
)

var (
	errUnterminatedComment   = errors.New("unterminated comment")
	errUnterminatedVariation = errors.New("unterminated variation")
	errUnbalancedVariation   = errors.New("unbalanced variation end")
)

// Token is one main-line move with the commentary that follows it
type Token struct {
	SAN     string
	Comment string
}

// movetext folds lexer output back into whole moves. The lexer splits a
// move into piece, origin, capture, square and promotion parts.
type movetext struct {
	moves   []Token
	san     strings.Builder
	hasDest bool

	comment []string // parts of the comment being read
	command strings.Builder
	params  []string
}

// mainLine assembles main-line SAN and the comment text after each move.
// Move numbers, NAGs, results and variations are dropped. Embedded commands
// are rendered back as "[%name value]" so annotations read them as text.
func mainLine(lexed []chess.Token) ([]Token, error) {
	var (
		m         movetext
		depth     int // open variations
		inComment bool
	)

	for _, tok := range lexed {
		if depth > 0 {
			switch tok.Type {
			case chess.VariationStart:
				depth++
			case chess.VariationEnd:
				depth--
			}
			continue
		}

		if inComment {
			switch tok.Type {
			case chess.CommentEnd:
				m.attach(strings.Join(m.comment, " "))
				m.comment = m.comment[:0]
				inComment = false
			case chess.COMMENT:
				if text := strings.TrimSpace(tok.Value); text != "" {
					m.comment = append(m.comment, text)
				}
			case chess.CommandStart:
				m.command.Reset()
				m.params = m.params[:0]
			case chess.CommandName:
				m.command.WriteString(tok.Value)
			case chess.CommandParam:
				m.params = append(m.params, strings.TrimSpace(tok.Value))
			case chess.CommandEnd:
				m.comment = append(m.comment, "[%"+m.command.String()+" "+strings.Join(m.params, ",")+"]")
			}
			continue
		}

		switch tok.Type {
		case chess.PIECE:
			m.flush()
			m.san.WriteString(tok.Value)

		case chess.FILE, chess.RANK, chess.DeambiguationSquare:
			if m.hasDest {
				m.flush()
			}
			m.san.WriteString(tok.Value)

		case chess.CAPTURE:
			m.san.WriteString("x")

		case chess.SQUARE:
			if m.hasDest {
				m.flush()
			}
			m.san.WriteString(tok.Value)
			m.hasDest = true

		case chess.PROMOTION:
			m.san.WriteString("=")

		case chess.PromotionPiece:
			m.san.WriteString(tok.Value)

		case chess.KingsideCastle:
			m.flush()
			m.san.WriteString("O-O")
			m.hasDest = true

		case chess.QueensideCastle:
			m.flush()
			m.san.WriteString("O-O-O")
			m.hasDest = true

		case chess.CHECK:

		case chess.CommentStart:
			m.flush()
			inComment = true

		case chess.VariationStart:
			m.flush()
			depth++

		case chess.VariationEnd:
			return nil, errUnbalancedVariation

		case chess.MoveNumber, chess.DOT, chess.ELLIPSIS, chess.NAG, chess.RESULT,
			chess.TagStart, chess.TagKey, chess.TagValue, chess.TagEnd:
			m.flush()

		default:
			m.flush()
			// Anything else in movetext is a malformed move, left for the
			// replayer to reject with its ply
			if v := strings.TrimSpace(tok.Value); v != "" && !isGlyph(v) {
				m.moves = append(m.moves, Token{SAN: v})
			}
		}
	}

	switch {
	case inComment:
		return nil, errUnterminatedComment
	case depth > 0:
		return nil, errUnterminatedVariation
	}
	m.flush()
	return m.moves, nil
}

func (m *movetext) flush() {
	if m.san.Len() == 0 {
		return
	}
	m.moves = append(m.moves, Token{SAN: m.san.String()})
	m.san.Reset()
	m.hasDest = false
}

// attach adds comment text to the last move, text before the first move
// belongs to the game and is dropped
func (m *movetext) attach(text string) {
	if text == "" || len(m.moves) == 0 {
		return
	}
	last := &m.moves[len(m.moves)-1]
	if last.Comment == "" {
		last.Comment = text
	} else {
		last.Comment += " " + text
	}
}

// isGlyph reports check marks and move assessments such as "#" or "?!"
func isGlyph(s string) bool {
	return strings.Trim(s, "+#!?") == ""
}
