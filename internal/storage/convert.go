// FILE: internal/storage/convert.go
package storage

import (
	"database/sql"
	"time"

	"chesspipe/internal/core"
	"chesspipe/internal/metadata"
	"chesspipe/internal/movetable"
)

// GamesFromMetadata tags cleaned records with a run id
func GamesFromMetadata(runID string, recs []metadata.Record) []GameRecord {
	out := make([]GameRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, GameRecord{
			RunID:           runID,
			GameID:          r.GameID,
			White:           r.White,
			Black:           r.Black,
			Result:          r.Result,
			ResultCode:      r.ResultCode,
			TerminationCode: r.TerminationCode,
			ECO:             r.ECO,
			TimeControl:     r.TimeControl,
			StartTimeUTC:    r.Start,
			EndTimeUTC:      r.End,
			Tags:            r.Tags,
		})
	}
	return out
}

// MovesFromTable tags move table rows with a run id
func MovesFromTable(runID string, t *movetable.Table) []MoveRecord {
	out := make([]MoveRecord, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, MoveRecord{
			RunID:      runID,
			GameID:     r.GameID,
			Ply:        r.Ply,
			Color:      r.Color,
			Move:       r.Move,
			Clock:      r.Clock,
			Eval:       r.Eval,
			Position:   r.Position,
			Evaluation: r.Evaluation,
		})
	}
	return out
}

func evalColumns(e core.Eval) (sql.NullFloat64, sql.NullInt64) {
	if p, ok := e.Pawns(); ok {
		return sql.NullFloat64{Float64: p, Valid: true}, sql.NullInt64{}
	}
	if n, ok := e.MateIn(); ok {
		return sql.NullFloat64{}, sql.NullInt64{Int64: int64(n), Valid: true}
	}
	return sql.NullFloat64{}, sql.NullInt64{}
}

func evalFromColumns(pawns sql.NullFloat64, mate sql.NullInt64) core.Eval {
	switch {
	case mate.Valid:
		return core.Mate(int(mate.Int64))
	case pawns.Valid:
		return core.Score(pawns.Float64)
	}
	return core.Eval{}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullResultCode(code int) sql.NullInt64 {
	if code < 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(code), Valid: true}
}
