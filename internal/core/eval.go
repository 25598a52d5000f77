// FILE: internal/core/eval.go
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EvalKind tags the variant held by an Eval
type EvalKind uint8

const (
	EvalNone EvalKind = iota
	EvalScore
	EvalMate
)

// MatePrefix marks a mate distance in the text form of an Eval
const MatePrefix = "M"

// Eval is a position evaluation: unset, a score in pawns, or a signed
// number of moves to a forced mate. The zero value is unset.
type Eval struct {
	kind  EvalKind
	pawns float64
	mate  int
}

// Score returns a score evaluation in pawns. Negative zero is stored as zero.
func Score(pawns float64) Eval {
	if pawns == 0 {
		pawns = 0
	}
	return Eval{kind: EvalScore, pawns: pawns}
}

// Mate returns a mate marker, negative when black is mating
func Mate(n int) Eval {
	return Eval{kind: EvalMate, mate: n}
}

// Negate flips the point of view of a score or mate marker
func (e Eval) Negate() Eval {
	switch e.kind {
	case EvalScore:
		return Score(-e.pawns)
	case EvalMate:
		return Mate(-e.mate)
	}
	return e
}

func (e Eval) Kind() EvalKind {
	return e.kind
}

func (e Eval) IsSet() bool {
	return e.kind != EvalNone
}

func (e Eval) IsMate() bool {
	return e.kind == EvalMate
}

// Pawns returns the score, ok is false for mate markers and unset values
func (e Eval) Pawns() (float64, bool) {
	return e.pawns, e.kind == EvalScore
}

// MateIn returns the mate distance, ok is false unless e is a mate marker
func (e Eval) MateIn() (int, bool) {
	return e.mate, e.kind == EvalMate
}

// String renders the wire format: "1.25", "M-3", or "" when unset
func (e Eval) String() string {
	switch e.kind {
	case EvalScore:
		return strconv.FormatFloat(e.pawns, 'f', 2, 64)
	case EvalMate:
		return MatePrefix + strconv.Itoa(e.mate)
	default:
		return ""
	}
}

// ParseEval reads the format produced by String
func ParseEval(s string) (Eval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Eval{}, nil
	}
	if rest, ok := strings.CutPrefix(s, MatePrefix); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return Eval{}, fmt.Errorf("invalid mate marker %q: %w", s, err)
		}
		return Mate(n), nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Eval{}, fmt.Errorf("invalid score %q: %w", s, err)
	}
	return Score(p), nil
}

// MarshalJSON encodes unset as null, scores as numbers and mates as "M<n>"
func (e Eval) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case EvalScore:
		return json.Marshal(e.pawns)
	case EvalMate:
		return json.Marshal(e.String())
	default:
		return []byte("null"), nil
	}
}

func (e *Eval) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = Eval{}
		return nil
	}
	var p float64
	if err := json.Unmarshal(data, &p); err == nil {
		*e = Score(p)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid eval %s", data)
	}
	parsed, err := ParseEval(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
