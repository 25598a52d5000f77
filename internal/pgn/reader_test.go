package pgn

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoGames = `[Event "Live Chess"]
[White "alice"]
[Black "bob"]
[Result "1-0"]

1. e4 {[%clk 0:03:00]} 1... e5 {[%clk 0:02:59]} 1-0

[Event "Live Chess"]
[White "carol"]
[Black "alice"]
[Result "*"]

1. d4 *
`

func TestReadAllSplitsRecords(t *testing.T) {
	games, err := ReadAll(strings.NewReader(twoGames))
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, 0, games[0].Index)
	require.NoError(t, games[0].Err)
	white, ok := games[0].Tags.Get("White")
	require.True(t, ok)
	assert.Equal(t, "alice", white)
	assert.Equal(t, []string{"e4", "e5"}, sans(games[0].Moves))
	assert.Equal(t, "[%clk 0:03:00]", games[0].Moves[0].Comment)

	assert.Equal(t, 1, games[1].Index)
	assert.Equal(t, []string{"d4"}, sans(games[1].Moves))
}

func TestReadAllKeepsTagOrder(t *testing.T) {
	games, err := ReadAll(strings.NewReader(twoGames))
	require.NoError(t, err)

	var keys []string
	for _, tag := range games[0].Tags {
		keys = append(keys, tag.Key)
	}
	assert.Equal(t, []string{"Event", "White", "Black", "Result"}, keys)
}

func TestReadAllEmptyArchive(t *testing.T) {
	games, err := ReadAll(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, games)
	assert.Empty(t, games)
}

func TestReadAllTagsOnOneLine(t *testing.T) {
	games, err := ReadAll(strings.NewReader("[Event \"x\"] [Site \"y\"]\n\n1. e4 e5 *\n"))
	require.NoError(t, err)
	require.Len(t, games, 1)

	site, ok := games[0].Tags.Get("Site")
	require.True(t, ok)
	assert.Equal(t, "y", site)
	assert.Equal(t, []string{"e4", "e5"}, sans(games[0].Moves))
}

func TestReadAllKeepsGameWithoutMoves(t *testing.T) {
	archive := `[Event "a"]
[Result "*"]

*

[Event "b"]
[Result "1-0"]

1. e4 1-0
`
	games, err := ReadAll(strings.NewReader(archive))
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Empty(t, games[0].Moves)
	event, _ := games[1].Tags.Get("Event")
	assert.Equal(t, "b", event)
	assert.Equal(t, 1, games[1].Index)
}

func TestReadAllStripsBOM(t *testing.T) {
	games, err := ReadAll(strings.NewReader("\ufeff[Event \"a\"]\n\n1. e4 *\n"))
	require.NoError(t, err)
	require.Len(t, games, 1)
	event, ok := games[0].Tags.Get("Event")
	require.True(t, ok)
	assert.Equal(t, "a", event)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Walk(strings.NewReader(twoGames), func(RawGame) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestTagsStartFEN(t *testing.T) {
	fen := "8/8/8/8/8/8/8/K6k w - - 0 1"
	assert.Equal(t, "", Tags{}.StartFEN())
	assert.Equal(t, fen, Tags{{"SetUp", "1"}, {"FEN", fen}}.StartFEN())
	assert.Equal(t, "", Tags{{"SetUp", "0"}, {"FEN", fen}}.StartFEN())
	assert.Equal(t, fen, Tags{{"FEN", fen}}.StartFEN())
}
