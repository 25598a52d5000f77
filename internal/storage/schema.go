// FILE: internal/storage/schema.go
package storage

import (
	"time"

	"chesspipe/internal/core"
)

// RunRecord represents a row in the runs table
type RunRecord struct {
	RunID           string    `db:"run_id"`
	Username        string    `db:"username"`
	Source          string    `db:"source"`
	StartedAt       time.Time `db:"started_at"`
	Games           int       `db:"games"`
	Skipped         int       `db:"skipped"`
	Plies           int       `db:"plies"`
	UniquePositions int       `db:"unique_positions"`
	Evaluated       int       `db:"evaluated"`
}

// GameRecord represents a row in the games table
type GameRecord struct {
	RunID           string            `db:"run_id"`
	GameID          int               `db:"game_id"`
	White           string            `db:"white"`
	Black           string            `db:"black"`
	Result          string            `db:"result"`
	ResultCode      int               `db:"result_code"` // -1 stored as NULL
	TerminationCode int               `db:"termination_code"`
	ECO             string            `db:"eco"`
	TimeControl     string            `db:"time_control"`
	StartTimeUTC    time.Time         `db:"start_time_utc"` // zero stored as NULL
	EndTimeUTC      time.Time         `db:"end_time_utc"`
	Tags            map[string]string `db:"tags_json"`
}

// MoveRecord represents a row in the moves table. Each Eval is split over a
// pawns and a mate column so the two never share a numeric domain.
type MoveRecord struct {
	RunID      string     `db:"run_id"`
	GameID     int        `db:"game_id"`
	Ply        int        `db:"ply"`
	Color      core.Color `db:"color"` // "w" or "b"
	Move       string     `db:"move"`
	Clock      string     `db:"clock"`
	Eval       core.Eval  // eval_pawns | eval_mate
	Position   string     `db:"position"`
	Evaluation core.Eval  // evaluation_pawns | evaluation_mate
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	games INTEGER NOT NULL,
	skipped INTEGER NOT NULL DEFAULT 0,
	plies INTEGER NOT NULL,
	unique_positions INTEGER NOT NULL,
	evaluated INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS games (
	run_id TEXT NOT NULL,
	game_id INTEGER NOT NULL,
	white TEXT NOT NULL DEFAULT '',
	black TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT '',
	result_code INTEGER CHECK(result_code IN (0, 1, 2)),
	termination_code INTEGER NOT NULL,
	eco TEXT NOT NULL DEFAULT '',
	time_control TEXT NOT NULL DEFAULT '',
	start_time_utc DATETIME,
	end_time_utc DATETIME,
	tags_json TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, game_id),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS moves (
	run_id TEXT NOT NULL,
	game_id INTEGER NOT NULL,
	ply INTEGER NOT NULL,
	color TEXT NOT NULL CHECK(color IN ('w', 'b')),
	move TEXT NOT NULL,
	clock TEXT NOT NULL DEFAULT '',
	eval_pawns REAL,
	eval_mate INTEGER,
	position TEXT NOT NULL,
	evaluation_pawns REAL,
	evaluation_mate INTEGER,
	PRIMARY KEY (run_id, game_id, ply),
	FOREIGN KEY (run_id, game_id) REFERENCES games(run_id, game_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_moves_position ON moves(position);
CREATE INDEX IF NOT EXISTS idx_games_white ON games(run_id, white);
CREATE INDEX IF NOT EXISTS idx_games_black ON games(run_id, black);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
