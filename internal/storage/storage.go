// FILE: internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"chesspipe/internal/core"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by lookups that match no row
var ErrNotFound = errors.New("not found")

// Store handles SQLite database operations
type Store struct {
	db           *sql.DB
	path         string
	healthStatus atomic.Bool
}

// NewStore opens the database over a single connection. walMode lets other
// processes, such as a running server, read while a run is written.
func NewStore(dataSourceName string, walMode bool) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if walMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Foreign keys are per connection in SQLite
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dataSourceName,
	}
	s.healthStatus.Store(true)

	return s, nil
}

// IsHealthy returns false once a write has failed
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// ☣ DESTRUCTIVE: Removes database file
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}

// WriteRun stores a run with its games and moves in one transaction, so a
// run is either complete in the database or absent
func (s *Store) WriteRun(ctx context.Context, run RunRecord, games []GameRecord, moves []MoveRecord) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO runs (
			run_id, username, source, started_at, games, skipped, plies, unique_positions, evaluated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Username, run.Source, run.StartedAt.UTC(),
			run.Games, run.Skipped, run.Plies, run.UniquePositions, run.Evaluated,
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		gameStmt, err := tx.PrepareContext(ctx, `INSERT INTO games (
			run_id, game_id, white, black, result, result_code, termination_code,
			eco, time_control, start_time_utc, end_time_utc, tags_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare game insert: %w", err)
		}
		defer gameStmt.Close()

		for _, g := range games {
			tags, err := json.Marshal(g.Tags)
			if err != nil {
				return fmt.Errorf("failed to encode tags of game %d: %w", g.GameID, err)
			}
			if _, err := gameStmt.ExecContext(ctx,
				run.RunID, g.GameID, g.White, g.Black, g.Result, nullResultCode(g.ResultCode),
				g.TerminationCode, g.ECO, g.TimeControl,
				nullTime(g.StartTimeUTC), nullTime(g.EndTimeUTC), string(tags),
			); err != nil {
				return fmt.Errorf("failed to insert game %d: %w", g.GameID, err)
			}
		}

		moveStmt, err := tx.PrepareContext(ctx, `INSERT INTO moves (
			run_id, game_id, ply, color, move, clock, eval_pawns, eval_mate,
			position, evaluation_pawns, evaluation_mate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare move insert: %w", err)
		}
		defer moveStmt.Close()

		for _, m := range moves {
			evalPawns, evalMate := evalColumns(m.Eval)
			evaluationPawns, evaluationMate := evalColumns(m.Evaluation)
			if _, err := moveStmt.ExecContext(ctx,
				run.RunID, m.GameID, m.Ply, m.Color.String(), m.Move, m.Clock,
				evalPawns, evalMate, m.Position, evaluationPawns, evaluationMate,
			); err != nil {
				return fmt.Errorf("failed to insert game %d ply %d: %w", m.GameID, m.Ply, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Storage degraded: run %s not written: %v", run.RunID, err)
		s.healthStatus.Store(false)
	}
	return err
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// DeleteRun removes a run and, by cascade, its games and moves
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `run_id, username, source, started_at, games, skipped, plies, unique_positions, evaluated`

func scanRun(row interface{ Scan(...any) error }) (RunRecord, error) {
	var r RunRecord
	err := row.Scan(&r.RunID, &r.Username, &r.Source, &r.StartedAt,
		&r.Games, &r.Skipped, &r.Plies, &r.UniquePositions, &r.Evaluated)
	return r, err
}

// LatestRun returns the most recently started run
func (s *Store) LatestRun(ctx context.Context) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return &r, nil
}

// ListRuns returns all runs, newest first
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return runs, nil
}

// GameFilter narrows QueryGames. Empty or "*" strings and zero ids match all.
type GameFilter struct {
	RunID  string
	GameID int
	Player string
	Result string
	Limit  int
	Offset int
}

// QueryGames retrieves games with optional filtering
func (s *Store) QueryGames(ctx context.Context, f GameFilter) ([]GameRecord, error) {
	query := `SELECT
		run_id, game_id, white, black, result, result_code, termination_code,
		eco, time_control, start_time_utc, end_time_utc, tags_json
	FROM games WHERE 1=1`

	var args []interface{}

	if f.RunID != "" && f.RunID != "*" {
		query += " AND run_id = ?"
		args = append(args, f.RunID)
	}

	if f.GameID > 0 {
		query += " AND game_id = ?"
		args = append(args, f.GameID)
	}

	if f.Player != "" && f.Player != "*" {
		query += " AND (white = ? OR black = ?)"
		args = append(args, f.Player, f.Player)
	}

	if f.Result != "" && f.Result != "*" {
		query += " AND result = ?"
		args = append(args, f.Result)
	}

	query += " ORDER BY run_id, game_id"

	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var (
			g          GameRecord
			resultCode sql.NullInt64
			start, end sql.NullTime
			tags       string
		)
		err := rows.Scan(
			&g.RunID, &g.GameID, &g.White, &g.Black, &g.Result, &resultCode, &g.TerminationCode,
			&g.ECO, &g.TimeControl, &start, &end, &tags,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		g.ResultCode = -1
		if resultCode.Valid {
			g.ResultCode = int(resultCode.Int64)
		}
		g.StartTimeUTC = start.Time
		g.EndTimeUTC = end.Time
		if err := json.Unmarshal([]byte(tags), &g.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of game %d: %w", g.GameID, err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}

// MoveFilter selects a ply range of one game, zero bounds are open
type MoveFilter struct {
	RunID   string
	GameID  int
	FromPly int
	ToPly   int
}

// QueryMoves retrieves the moves of a game ordered by ply
func (s *Store) QueryMoves(ctx context.Context, f MoveFilter) ([]MoveRecord, error) {
	query := `SELECT
		run_id, game_id, ply, color, move, clock, eval_pawns, eval_mate,
		position, evaluation_pawns, evaluation_mate
	FROM moves WHERE run_id = ? AND game_id = ?`
	args := []interface{}{f.RunID, f.GameID}

	if f.FromPly > 0 {
		query += " AND ply >= ?"
		args = append(args, f.FromPly)
	}
	if f.ToPly > 0 {
		query += " AND ply <= ?"
		args = append(args, f.ToPly)
	}
	query += " ORDER BY ply"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var (
			m                          MoveRecord
			color                      string
			evalPawns, evaluationPawns sql.NullFloat64
			evalMate, evaluationMate   sql.NullInt64
		)
		err := rows.Scan(
			&m.RunID, &m.GameID, &m.Ply, &color, &m.Move, &m.Clock, &evalPawns, &evalMate,
			&m.Position, &evaluationPawns, &evaluationMate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		c, ok := core.ParseColor(color)
		if !ok {
			return nil, fmt.Errorf("game %d ply %d: bad color %q", m.GameID, m.Ply, color)
		}
		m.Color = c
		m.Eval = evalFromColumns(evalPawns, evalMate)
		m.Evaluation = evalFromColumns(evaluationPawns, evaluationMate)
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}

// GetMove returns a single ply
func (s *Store) GetMove(ctx context.Context, runID string, gameID, ply int) (*MoveRecord, error) {
	moves, err := s.QueryMoves(ctx, MoveFilter{RunID: runID, GameID: gameID, FromPly: ply, ToPly: ply})
	if err != nil {
		return nil, err
	}
	if len(moves) == 0 {
		return nil, ErrNotFound
	}
	return &moves[0], nil
}
