// FILE: internal/movetable/table.go
package movetable

import (
	"cmp"
	"slices"
	"strconv"

	"chesspipe/internal/core"
)

// Columns is the fixed column order of a move table
var Columns = []string{"game_id", "ply", "color", "move", "clock", "eval", "position"}

// EvaluationColumn is appended once engine values are repopulated
const EvaluationColumn = "evaluation"

// Row is one half-move
type Row struct {
	GameID     int
	Ply        int        // 1-based within the game
	Color      core.Color // side that moved
	Move       string     // SAN relative to the position before the move
	Clock      string     // [%clk] verbatim, empty when absent
	Eval       core.Eval  // [%eval] annotation
	Position   string     // FEN after the move
	Evaluation core.Eval  // engine value, set by positions.Repopulate
}

// Values renders the row in Columns order, color as true for white
func (r Row) Values() []string {
	return []string{
		strconv.Itoa(r.GameID),
		strconv.Itoa(r.Ply),
		strconv.FormatBool(r.Color.IsWhite()),
		r.Move,
		r.Clock,
		r.Eval.String(),
		r.Position,
	}
}

// Table is the ordered per-ply dataset of one archive
type Table struct {
	Rows    []Row
	Games   int                // game ids handed out, including skipped games
	Skipped []*core.ParseError // games dropped under PolicySkip
}

// NewTable returns an empty table, never nil rows
func NewTable() *Table {
	return &Table{Rows: []Row{}}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Sort orders rows by (game_id, ply), keeping the order of equal keys
func (t *Table) Sort() {
	slices.SortStableFunc(t.Rows, compareRows)
}

// IsSorted reports whether rows are ordered by (game_id, ply)
func (t *Table) IsSorted() bool {
	return slices.IsSortedFunc(t.Rows, compareRows)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	return &Table{
		Rows:    slices.Clone(t.Rows),
		Games:   t.Games,
		Skipped: slices.Clone(t.Skipped),
	}
}

// GameRows returns the rows of a game, rows must be sorted
func (t *Table) GameRows(gameID int) []Row {
	start, _ := slices.BinarySearchFunc(t.Rows, gameID, func(r Row, id int) int {
		return cmp.Compare(r.GameID, id)
	})
	end := start
	for end < len(t.Rows) && t.Rows[end].GameID == gameID {
		end++
	}
	return t.Rows[start:end]
}

func compareRows(a, b Row) int {
	if c := cmp.Compare(a.GameID, b.GameID); c != 0 {
		return c
	}
	return cmp.Compare(a.Ply, b.Ply)
}
