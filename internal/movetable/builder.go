// FILE: internal/movetable/builder.go
package movetable

import (
	"errors"
	"fmt"
	"io"
	"log"

	"chesspipe/internal/annotation"
	"chesspipe/internal/board"
	"chesspipe/internal/core"
	"chesspipe/internal/pgn"
)

// Policy decides what a game that cannot be replayed does to the archive
type Policy int

const (
	PolicyAbort Policy = iota // fail the whole archive
	PolicySkip                // drop the game, keep its id
)

func (p Policy) String() string {
	switch p {
	case PolicySkip:
		return "skip"
	default:
		return "abort"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown parse policy %q (want abort or skip)", s)
	}
}

// Builder turns game records into a move table
type Builder struct {
	Policy        Policy
	ProgressEvery int // log every n games, 0 disables
}

// Build processes games in order. Game ids are 1..N by position in games,
// independent of anything in the records.
func (b *Builder) Build(games []pgn.RawGame) (*Table, error) {
	t := NewTable()
	for _, raw := range games {
		if err := b.add(t, raw); err != nil {
			return nil, err
		}
	}
	return b.finish(t), nil
}

// BuildFrom streams an archive straight into a table
func (b *Builder) BuildFrom(r io.Reader) (*Table, error) {
	t := NewTable()
	err := pgn.Walk(r, func(raw pgn.RawGame) error {
		return b.add(t, raw)
	})
	if err != nil {
		return nil, err
	}
	return b.finish(t), nil
}

func (b *Builder) add(t *Table, raw pgn.RawGame) error {
	t.Games++
	gameID := t.Games

	rows, err := replayGame(gameID, raw)
	if err != nil {
		var perr *core.ParseError
		if b.Policy == PolicySkip && errors.As(err, &perr) {
			log.Printf("Skipping %v", perr)
			t.Skipped = append(t.Skipped, perr)
			return nil
		}
		return err
	}
	t.Rows = append(t.Rows, rows...)

	if b.ProgressEvery > 0 && gameID%b.ProgressEvery == 0 {
		log.Printf("Move table: %d games, %d plies", gameID, len(t.Rows))
	}
	return nil
}

func (b *Builder) finish(t *Table) *Table {
	t.Sort()
	log.Printf("Move table complete: %d games, %d plies, %d skipped", t.Games, len(t.Rows), len(t.Skipped))
	return t
}

// replayGame builds every row of one game or none at all
func replayGame(gameID int, raw pgn.RawGame) ([]Row, error) {
	fail := func(ply int, move string, err error) error {
		return &core.ParseError{Index: raw.Index, GameID: gameID, Ply: ply, Move: move, Err: err}
	}

	if raw.Err != nil {
		return nil, fail(0, "", raw.Err)
	}

	// One running position per game, discarded with the game
	replayer, err := board.NewReplayer(raw.Tags.StartFEN())
	if err != nil {
		return nil, fail(0, "", err)
	}

	rows := make([]Row, 0, len(raw.Moves))
	for i, tok := range raw.Moves {
		ply := i + 1
		step, err := replayer.Apply(tok.SAN)
		if err != nil {
			return nil, fail(ply, tok.SAN, err)
		}

		ann := annotation.Extract(tok.Comment)
		rows = append(rows, Row{
			GameID:   gameID,
			Ply:      ply,
			Color:    step.Color,
			Move:     step.SAN,
			Clock:    ann.Clock,
			Eval:     ann.Eval,
			Position: step.FEN,
		})
	}
	return rows, nil
}
