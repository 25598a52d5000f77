// FILE: internal/positions/repopulate.go
package positions

import (
	"chesspipe/internal/core"
	"chesspipe/internal/movetable"
)

// Repopulate returns a copy of t with each row's Evaluation taken from s.
// Rows keep their count and order. A position missing from s means s was
// not built from t and yields an *core.IntegrityError.
func Repopulate(t *movetable.Table, s *Set) (*movetable.Table, error) {
	out := t.Clone()
	for i := range out.Rows {
		row := &out.Rows[i]
		e, ok := s.Get(row.Position)
		if !ok {
			return nil, &core.IntegrityError{GameID: row.GameID, Ply: row.Ply, Position: row.Position}
		}
		row.Evaluation = e
	}
	return out, nil
}
