// FILE: internal/dataset/merge.go
package dataset

import (
	"log"

	"chesspipe/internal/metadata"
	"chesspipe/internal/movetable"
)

// Row is a ply joined with its game's metadata. Game is nil when the game
// has no metadata record.
type Row struct {
	movetable.Row
	Game *metadata.Record
}

// Merge left joins moves with games on game id, keeping every move row in
// its original order
func Merge(moves *movetable.Table, games []metadata.Record) []Row {
	byID := make(map[int]*metadata.Record, len(games))
	for i := range games {
		byID[games[i].GameID] = &games[i]
	}

	out := make([]Row, 0, moves.Len())
	for _, r := range moves.Rows {
		out = append(out, Row{Row: r, Game: byID[r.GameID]})
	}
	log.Printf("Merged %d games with %d moves", len(games), moves.Len())
	return out
}
