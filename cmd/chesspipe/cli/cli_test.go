package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"chesspipe/internal/core"
	"chesspipe/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRun(t *testing.T, path, runID string) {
	t.Helper()
	store, err := storage.NewStore(path, false)
	require.NoError(t, err)
	defer store.Close()

	run := storage.RunRecord{RunID: runID, Username: "alice", StartedAt: time.Now(), Games: 1, Plies: 1, UniquePositions: 1}
	games := []storage.GameRecord{{RunID: runID, GameID: 1, White: "alice", Black: "bob", Result: "*", ResultCode: -1, TerminationCode: 10}}
	moves := []storage.MoveRecord{{RunID: runID, GameID: 1, Ply: 1, Color: core.ColorWhite, Move: "d4", Position: "fen-after-d4", Evaluation: core.Score(0.2)}}
	require.NoError(t, store.WriteRun(context.Background(), run, games, moves))
}

func TestRunRequiresSubcommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"drop"}, &out))
	assert.ErrorContains(t, run([]string{"runs"}, &out), "database path required")
}

func TestInitQueryDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, run([]string{"init", "-path", path}, &out))
	assert.Contains(t, out.String(), "Database initialized at: "+path)

	out.Reset()
	require.NoError(t, run([]string{"runs", "-path", path}, &out))
	assert.Contains(t, out.String(), "No runs found")

	const runID = "0b9f1f8e-5a0c-4f56-9d2b-7c1e0c3e8d11"
	seedRun(t, path, runID)

	out.Reset()
	require.NoError(t, run([]string{"runs", "-path", path}, &out))
	assert.Contains(t, out.String(), runID)

	out.Reset()
	require.NoError(t, run([]string{"query", "-path", path, "-player", "bob"}, &out))
	assert.Contains(t, out.String(), "0b9f1f8e")
	assert.Contains(t, out.String(), "Found 1 game(s)")

	out.Reset()
	require.NoError(t, run([]string{"moves", "-path", path, "-gameId", "1"}, &out))
	assert.Contains(t, out.String(), "fen-after-d4")
	assert.Contains(t, out.String(), "0.20")

	assert.ErrorContains(t, run([]string{"moves", "-path", path}, &out), "game ID required")

	out.Reset()
	require.NoError(t, run([]string{"delete", "-path", path, "-run", runID}, &out))
	assert.Contains(t, out.String(), "Run deleted")
	assert.Error(t, run([]string{"delete", "-path", path, "-run", runID}, &out))

	out.Reset()
	require.NoError(t, run([]string{"delete", "-path", path}, &out))
	assert.NoFileExists(t, path)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0b9f1f8e", shortID("0b9f1f8e-5a0c"))
	assert.Equal(t, "abc", shortID("abc"))
}
