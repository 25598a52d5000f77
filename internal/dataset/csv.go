// FILE: internal/dataset/csv.go
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"chesspipe/internal/metadata"
	"chesspipe/internal/movetable"
)

// GameColumns is the column order of the games export
var GameColumns = []string{"game_id", "white", "black", "result", "termination", "eco", "time_control", "start_time", "end_time"}

// WriteMovesCSV writes the move table including the evaluation column
func WriteMovesCSV(w io.Writer, t *movetable.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(slices.Concat(movetable.Columns, []string{movetable.EvaluationColumn})); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write(moveRecord(r)); err != nil {
			return fmt.Errorf("failed to write game %d ply %d: %w", r.GameID, r.Ply, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGamesCSV writes one line per cleaned game
func WriteGamesCSV(w io.Writer, games []metadata.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GameColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, g := range games {
		if err := cw.Write(gameRecord(g)); err != nil {
			return fmt.Errorf("failed to write game %d: %w", g.GameID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMergedCSV writes merged rows, game columns empty where metadata is missing
func WriteMergedCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	header := slices.Concat(movetable.Columns, []string{movetable.EvaluationColumn}, GameColumns[1:])
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		rec := moveRecord(r.Row)
		if r.Game != nil {
			rec = append(rec, gameRecord(*r.Game)[1:]...)
		} else {
			rec = append(rec, make([]string, len(GameColumns)-1)...)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write game %d ply %d: %w", r.GameID, r.Ply, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func moveRecord(r movetable.Row) []string {
	return append(r.Values(), r.Evaluation.String())
}

func gameRecord(g metadata.Record) []string {
	result := ""
	if g.ResultCode >= 0 {
		result = strconv.Itoa(g.ResultCode)
	}
	return []string{
		strconv.Itoa(g.GameID),
		g.White,
		g.Black,
		result,
		strconv.Itoa(g.TerminationCode),
		g.ECO,
		g.TimeControl,
		formatTime(g.Start),
		formatTime(g.End),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
