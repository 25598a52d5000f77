package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chesspipe/internal/config"
	"chesspipe/internal/core"
	"chesspipe/internal/engine"
	"chesspipe/internal/fetch"
	"chesspipe/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archive = `[Event "Live Chess"]
[White "alice"]
[Black "bob"]
[Result "0-1"]
[Termination "bob won by checkmate"]
[UTCDate "2024.03.01"]
[StartTime "10:00:00"]

1. f3 {[%clk 0:02:59.9]} 1... e5 {[%clk 0:02:59.1]} 2. g4 {[%eval -3.1]} 2... Qh4# 0-1

[Event "Live Chess"]
[White "bob"]
[Black "alice"]
[Result "1/2-1/2"]
[Termination "Game drawn by agreement"]

1. f3 e5 2. Kf2 Nc6 1/2-1/2
`

type lengthEvaluator struct{}

func (lengthEvaluator) Evaluate(_ context.Context, fen string) (core.Eval, error) {
	return core.Score(float64(len(fen)) / 100), nil
}

func (lengthEvaluator) Close() error { return nil }

func lengthFactory(context.Context) (engine.Evaluator, error) {
	return lengthEvaluator{}, nil
}

type stubFetcher struct {
	text string
	got  fetch.Range
}

func (f *stubFetcher) Download(_ context.Context, _ string, r fetch.Range) (string, error) {
	f.got = r
	return f.text, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "games.pgn")
	require.NoError(t, os.WriteFile(path, []byte(archive), 0644))

	cfg := config.Default()
	cfg.Input.PGN = path
	cfg.Engine.Workers = 2
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.CSV = true
	return cfg
}

func newTestService(t *testing.T, cfg config.Config) *Service {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "runs.db"), false)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	svc := New(cfg, store)
	svc.SetEvaluator(lengthFactory)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(t, cfg)
	ctx := context.Background()

	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Same(t, res, svc.LastResult())

	require.Len(t, res.Games, 2)
	assert.Equal(t, 8, res.Moves.Len())
	// both games open 1. f3 e5
	assert.Equal(t, 8, res.Positions.Rows)
	assert.Equal(t, 6, res.Positions.Unique)
	assert.Equal(t, 6, res.Fill.Evaluated)

	for _, r := range res.Moves.Rows {
		assert.Equal(t, core.Score(float64(len(r.Position))/100), r.Evaluation, "game %d ply %d", r.GameID, r.Ply)
	}
	assert.Equal(t, "0:02:59.9", res.Moves.Rows[0].Clock)
	assert.Equal(t, core.Score(-3.1), res.Moves.Rows[2].Eval)
	require.Len(t, res.Merged, 8)
	assert.Equal(t, "alice", res.Merged[0].Game.White)

	run, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, 6, run.Evaluated)

	games, err := svc.Games(ctx, storage.GameFilter{Player: "alice"})
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Equal(t, 0, games[0].TerminationCode)
	assert.Equal(t, 9, games[1].TerminationCode)

	moves, err := svc.Moves(ctx, storage.MoveFilter{GameID: 1})
	require.NoError(t, err)
	require.Len(t, moves, 4)
	assert.Equal(t, "Qh4#", moves[3].Move)
	assert.Equal(t, res.Moves.Rows[3].Evaluation, moves[3].Evaluation)

	for name, lines := range map[string]int{"moves.csv": 9, "games.csv": 3, "merged.csv": 9} {
		data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, lines, strings.Count(string(data), "\n"), name)
	}
}

func TestRunWithoutEngine(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(t, cfg)
	svc.SetEvaluator(nil)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Fill.Evaluated)
	for _, r := range res.Moves.Rows {
		assert.False(t, r.Evaluation.IsSet())
	}
}

func TestRunEngineFailure(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(t, cfg)
	boom := errors.New("engine missing")
	svc.SetEvaluator(func(context.Context) (engine.Evaluator, error) { return nil, boom })

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, svc.LastResult())

	_, err = svc.LatestRun(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunFromDownload(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.PGN = ""
	cfg.Input.Username = "Alice"
	cfg.Input.From = "2024-01"
	cfg.Output.CSV = false
	svc := newTestService(t, cfg)
	f := &stubFetcher{text: archive}
	svc.SetFetcher(f)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetch.Range{From: "2024-01"}, f.got)
	assert.Len(t, res.Games, 2)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "alice.pgn"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "moves.csv"))

	run, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", run.Username)
	assert.Equal(t, "chess.com/alice", run.Source)
}

func TestRunAbortsOnIllegalMove(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Input.PGN, []byte(archive+"\n[Event \"x\"]\n\n1. e4 e5 2. Ke3 *\n"), 0644))
	svc := newTestService(t, cfg)

	_, err := svc.Run(context.Background())
	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.GameID)

	cfg.Parse.Policy = "skip"
	svc = newTestService(t, cfg)
	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Games, 3)
	assert.Len(t, res.Moves.Skipped, 1)
}

func TestQueriesWithoutStore(t *testing.T) {
	svc := New(testConfig(t), nil)
	ctx := context.Background()

	assert.Equal(t, "disabled", svc.GetStorageHealth())
	_, err := svc.Games(ctx, storage.GameFilter{})
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.Moves(ctx, storage.MoveFilter{GameID: 1})
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.Move(ctx, "", 1, 1)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestMovesUnknownGame(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	ctx := context.Background()
	_, err := svc.Run(ctx)
	require.NoError(t, err)

	_, err = svc.Moves(ctx, storage.MoveFilter{GameID: 42})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	m, err := svc.Move(ctx, "", 2, 4)
	require.NoError(t, err)
	assert.Equal(t, "Nc6", m.Move)
}
