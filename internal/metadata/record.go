// FILE: internal/metadata/record.go
package metadata

import (
	"log"
	"time"
)

// Record is the cleaned, typed view of a game's headers
type Record struct {
	GameID          int
	White           string
	Black           string
	Result          string
	ResultCode      int // -1 when the result is unknown
	TerminationCode int
	ECO             string
	TimeControl     string
	Start           time.Time
	End             time.Time
	Tags            map[string]string // every tag left after RemoveUnneeded
}

// Clean derives the typed record. Unparsable dates are logged and left zero.
func Clean(g Game) Record {
	tags := RemoveUnneeded(g.Tags)
	rec := Record{
		GameID:          g.GameID,
		ResultCode:      -1,
		TerminationCode: TerminationUnexpected,
		Tags:            tags.Map(),
	}
	rec.White, _ = tags.Get("White")
	rec.Black, _ = tags.Get("Black")
	rec.ECO, _ = tags.Get("ECO")
	rec.TimeControl, _ = tags.Get("TimeControl")

	rec.Result, _ = tags.Get("Result")
	if code, ok := ResultCode(rec.Result); ok {
		rec.ResultCode = code
	}
	if term, ok := tags.Get("Termination"); ok {
		rec.TerminationCode = TerminationCode(term)
	}

	start, end, err := StartEnd(tags)
	if err != nil {
		log.Printf("Game %d: %v", g.GameID, err)
	}
	rec.Start, rec.End = start, end
	return rec
}

// CleanAll cleans games in order
func CleanAll(games []Game) []Record {
	out := make([]Record, 0, len(games))
	for _, g := range games {
		out = append(out, Clean(g))
	}
	return out
}
