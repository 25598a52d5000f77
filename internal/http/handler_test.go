package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chesspipe/internal/core"
	"chesspipe/internal/service"
	"chesspipe/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runID = "7d5e3a8e-2f5b-4a8a-9a43-2b1c1a0f2f10"

type fakeQueries struct {
	disabled   bool
	gameFilter storage.GameFilter
	moveFilter storage.MoveFilter
}

func (f *fakeQueries) GetStorageHealth() string {
	if f.disabled {
		return "disabled"
	}
	return "ok"
}

func (f *fakeQueries) LatestRun(ctx context.Context) (*storage.RunRecord, error) {
	if f.disabled {
		return nil, service.ErrStorageDisabled
	}
	return &storage.RunRecord{RunID: runID, Username: "alice", Games: 2, Plies: 8, UniquePositions: 6, Evaluated: 6}, nil
}

func (f *fakeQueries) Games(ctx context.Context, filter storage.GameFilter) ([]storage.GameRecord, error) {
	f.gameFilter = filter
	return []storage.GameRecord{
		{RunID: runID, GameID: 1, White: "alice", Black: "bob", Result: "0-1", ResultCode: 0, StartTimeUTC: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{RunID: runID, GameID: 2, White: "bob", Black: "alice", Result: "*", ResultCode: -1, TerminationCode: 10},
	}, nil
}

func (f *fakeQueries) Moves(ctx context.Context, filter storage.MoveFilter) ([]storage.MoveRecord, error) {
	f.moveFilter = filter
	if filter.GameID != 1 {
		return nil, fmt.Errorf("game %d: %w", filter.GameID, storage.ErrNotFound)
	}
	return []storage.MoveRecord{
		{RunID: runID, GameID: 1, Ply: 1, Color: core.ColorWhite, Move: "f3", Eval: core.Score(-0.5), Position: "rnbqkbnr/pppppppp/8/8/8/5P2/PPPPP1PP/RNBQKBNR b KQkq - 0 1"},
		{RunID: runID, GameID: 1, Ply: 2, Color: core.ColorBlack, Move: "e5", Position: "p2", Evaluation: core.Mate(-2)},
	}, nil
}

func (f *fakeQueries) Move(ctx context.Context, run string, gameID, ply int) (*storage.MoveRecord, error) {
	moves, err := f.Moves(ctx, storage.MoveFilter{RunID: run, GameID: gameID})
	if err != nil {
		return nil, err
	}
	if ply > len(moves) {
		return nil, storage.ErrNotFound
	}
	return &moves[ply-1], nil
}

func do(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decodeError(t *testing.T, body []byte) core.ErrorResponse {
	t.Helper()
	var e core.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealth(t *testing.T) {
	app := NewFiberApp(&fakeQueries{}, false)
	status, body := do(t, app, "/health")
	assert.Equal(t, 200, status)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, "ok", out["storage"])
}

func TestLatestRun(t *testing.T) {
	status, body := do(t, NewFiberApp(&fakeQueries{}, false), "/api/v1/runs/latest")
	require.Equal(t, 200, status)

	var run core.RunResponse
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, 6, run.UniquePositions)
}

func TestStorageDisabled(t *testing.T) {
	status, body := do(t, NewFiberApp(&fakeQueries{disabled: true}, false), "/api/v1/runs/latest")
	assert.Equal(t, 503, status)
	assert.Equal(t, core.ErrStorageDisabled, decodeError(t, body).Code)
}

func TestListGames(t *testing.T) {
	q := &fakeQueries{}
	app := NewFiberApp(q, false)

	status, body := do(t, app, "/api/v1/games?player=alice&result=0-1&limit=5&offset=2&run="+runID)
	require.Equal(t, 200, status)
	assert.Equal(t, storage.GameFilter{RunID: runID, Player: "alice", Result: "0-1", Limit: 5, Offset: 2}, q.gameFilter)

	var games []core.GameResponse
	require.NoError(t, json.Unmarshal(body, &games))
	require.Len(t, games, 2)
	require.NotNil(t, games[0].ResultCode)
	assert.Equal(t, 0, *games[0].ResultCode)
	assert.NotNil(t, games[0].StartTime)
	assert.Nil(t, games[1].ResultCode)
	assert.Nil(t, games[1].EndTime)

	do(t, app, "/api/v1/games")
	assert.Equal(t, 100, q.gameFilter.Limit, "default page size")
}

func TestListGamesValidation(t *testing.T) {
	app := NewFiberApp(&fakeQueries{}, false)
	for _, target := range []string{
		"/api/v1/games?run=latest",
		"/api/v1/games?result=win",
		"/api/v1/games?limit=501",
		"/api/v1/games?limit=abc",
	} {
		status, body := do(t, app, target)
		assert.Equal(t, 400, status, target)
		assert.Equal(t, core.ErrInvalidRequest, decodeError(t, body).Code, target)
	}
}

func TestListMoves(t *testing.T) {
	q := &fakeQueries{}
	app := NewFiberApp(q, false)

	status, body := do(t, app, "/api/v1/games/1/moves?from=1&to=2")
	require.Equal(t, 200, status)
	assert.Equal(t, storage.MoveFilter{GameID: 1, FromPly: 1, ToPly: 2}, q.moveFilter)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, true, raw[0]["color"])
	assert.Equal(t, -0.5, raw[0]["eval"])
	assert.Nil(t, raw[0]["evaluation"])
	assert.Equal(t, "M-2", raw[1]["evaluation"])

	status, body = do(t, app, "/api/v1/games/9/moves")
	assert.Equal(t, 404, status)
	assert.Equal(t, core.ErrGameNotFound, decodeError(t, body).Code)

	status, _ = do(t, app, "/api/v1/games/0/moves")
	assert.Equal(t, 400, status)

	status, body = do(t, app, "/api/v1/games/1/moves?from=5&to=2")
	assert.Equal(t, 400, status)
	assert.Contains(t, decodeError(t, body).Details, "ToPly")
}

func TestBoardSVG(t *testing.T) {
	app := NewFiberApp(&fakeQueries{}, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/games/1/moves/1/board.svg?size=30", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "<svg"))

	status, body := do(t, app, "/api/v1/games/1/moves/5/board.svg")
	assert.Equal(t, 404, status)
	assert.Equal(t, core.ErrMoveNotFound, decodeError(t, body).Code)

	status, body = do(t, app, "/api/v1/games/1/moves/2/board.svg")
	assert.Equal(t, 500, status)
	assert.Equal(t, core.ErrInvalidFEN, decodeError(t, body).Code)
}

func TestRateLimit(t *testing.T) {
	app := NewFiberApp(&fakeQueries{}, false)

	var limited int
	for i := 0; i < rateLimitRate+5; i++ {
		req := httptest.NewRequest("GET", "/api/v1/runs/latest", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == fiber.StatusTooManyRequests {
			limited++
		}
	}
	assert.Positive(t, limited)

	// health is outside the limited group
	status, _ := do(t, app, "/health")
	assert.Equal(t, 200, status)
}

func TestUnknownRoute(t *testing.T) {
	status, body := do(t, NewFiberApp(&fakeQueries{}, false), "/api/v1/nope")
	assert.Equal(t, 404, status)
	assert.Equal(t, "Cannot GET /api/v1/nope", decodeError(t, body).Error)
}
