// FILE: internal/metadata/metadata.go
package metadata

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"chesspipe/internal/pgn"
)

// Game holds the header tags of one record under its discovery-order id
type Game struct {
	GameID int
	Tags   pgn.Tags
}

// Extract assigns ids 1..N in record order, the same numbering the move
// table builder uses, so the two sides join on game id
func Extract(games []pgn.RawGame) []Game {
	out := make([]Game, 0, len(games))
	for i, raw := range games {
		out = append(out, Game{GameID: i + 1, Tags: slices.Clone(raw.Tags)})
	}
	return out
}

// Unneeded lists the site-specific tags dropped before storage
var Unneeded = []string{"Event", "Site", "Round", "CurrentPosition", "Timezone", "ECOUrl", "UTCTime", "Link"}

// RemoveUnneeded returns tags without the Unneeded keys
func RemoveUnneeded(tags pgn.Tags) pgn.Tags {
	out := make(pgn.Tags, 0, len(tags))
	for _, t := range tags {
		if !slices.Contains(Unneeded, t.Key) {
			out = append(out, t)
		}
	}
	return out
}

const dateTimeLayout = "2006.01.02 15:04:05"

// StartEnd combines UTCDate+StartTime and EndDate+EndTime. A missing half
// leaves the corresponding time zero.
func StartEnd(tags pgn.Tags) (start, end time.Time, err error) {
	start, err = joinDateTime(tags, "UTCDate", "StartTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = joinDateTime(tags, "EndDate", "EndTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func joinDateTime(tags pgn.Tags, dateKey, timeKey string) (time.Time, error) {
	date, ok1 := tags.Get(dateKey)
	clock, ok2 := tags.Get(timeKey)
	if !ok1 || !ok2 || strings.Contains(date, "?") {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s %s: %w", dateKey, timeKey, err)
	}
	return t, nil
}

// Result codes
const (
	ResultBlackWin = 0
	ResultWhiteWin = 1
	ResultDraw     = 2
)

// ResultCode maps a PGN result, ok is false for "*" and anything unknown
func ResultCode(result string) (int, bool) {
	switch strings.TrimSpace(result) {
	case "0-1":
		return ResultBlackWin, true
	case "1-0":
		return ResultWhiteWin, true
	case "1/2-1/2":
		return ResultDraw, true
	}
	return 0, false
}

// TerminationUnexpected is the code of a termination text no rule matches
const TerminationUnexpected = 10

var terminationRules = []struct {
	substr string
	code   int
}{
	{"won by checkmate", 0},
	{"won by resignation", 1},
	{"won on time", 2},
	{"won - game abandoned", 3},
	{"game drawn by stalemate", 4},
	{"game drawn by repetition", 5},
	{"game drawn by insufficient material", 6},
	{"game drawn by 50-move rule", 7},
	{"game drawn by timeout vs insufficient material", 8},
	{"game drawn by agreement", 9},
}

// TerminationCode classifies a Termination tag by the first matching rule
func TerminationCode(termination string) int {
	v := strings.ToLower(termination)
	for _, r := range terminationRules {
		if strings.Contains(v, r.substr) {
			return r.code
		}
	}
	return TerminationUnexpected
}
