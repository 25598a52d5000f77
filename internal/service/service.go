// FILE: internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chesspipe/internal/config"
	"chesspipe/internal/engine"
	"chesspipe/internal/fetch"
	"chesspipe/internal/storage"
)

// ErrStorageDisabled is returned by queries when no database is configured
var ErrStorageDisabled = errors.New("persistence disabled")

// Fetcher retrieves an archive for a player
type Fetcher interface {
	Download(ctx context.Context, username string, r fetch.Range) (string, error)
}

// Service runs the pipeline and answers queries over stored runs
type Service struct {
	cfg     config.Config
	store   *storage.Store // nil if persistence disabled
	fetcher Fetcher
	factory engine.Factory // nil if evaluation disabled

	mu   sync.RWMutex
	last *Result
}

// New wires collaborators from cfg. The engine factory is only set when
// evaluation is enabled.
func New(cfg config.Config, store *storage.Store) *Service {
	client := fetch.New(cfg.Input.BaseURL, cfg.Input.RequestsPerSecond)
	client.Verbose = cfg.Input.Verbose
	s := &Service{
		cfg:     cfg,
		store:   store,
		fetcher: client,
	}
	if cfg.Engine.Enabled {
		opts := engine.Options{
			Path:    cfg.Engine.Path,
			Limits:  engine.Limits{Depth: cfg.Engine.Depth, MoveTime: cfg.Engine.MoveTime},
			Timeout: cfg.Engine.Timeout,
			Threads: cfg.Engine.Threads,
			HashMB:  cfg.Engine.HashMB,
		}
		s.factory = func(ctx context.Context) (engine.Evaluator, error) {
			return engine.NewAnalyzer(ctx, opts)
		}
	}
	return s
}

// SetFetcher replaces the archive source
func (s *Service) SetFetcher(f Fetcher) {
	s.fetcher = f
}

// SetEvaluator replaces the engine factory, nil disables evaluation
func (s *Service) SetEvaluator(f engine.Factory) {
	s.factory = f
}

// LastResult returns the most recent successful run of this process
func (s *Service) LastResult() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

func (s *Service) LatestRun(ctx context.Context) (*storage.RunRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.LatestRun(ctx)
}

// resolveRun maps an empty run id to the latest run
func (s *Service) resolveRun(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	run, err := s.LatestRun(ctx)
	if err != nil {
		return "", err
	}
	return run.RunID, nil
}

// Games lists games of a run, the latest run when runID is empty
func (s *Service) Games(ctx context.Context, f storage.GameFilter) ([]storage.GameRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	runID, err := s.resolveRun(ctx, f.RunID)
	if err != nil {
		return nil, err
	}
	f.RunID = runID
	return s.store.QueryGames(ctx, f)
}

// Moves lists the plies of one game, the latest run when runID is empty
func (s *Service) Moves(ctx context.Context, f storage.MoveFilter) ([]storage.MoveRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	runID, err := s.resolveRun(ctx, f.RunID)
	if err != nil {
		return nil, err
	}
	f.RunID = runID

	games, err := s.store.QueryGames(ctx, storage.GameFilter{RunID: runID, GameID: f.GameID})
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("game %d: %w", f.GameID, storage.ErrNotFound)
	}
	return s.store.QueryMoves(ctx, f)
}

// Move returns a single ply
func (s *Service) Move(ctx context.Context, runID string, gameID, ply int) (*storage.MoveRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	runID, err := s.resolveRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.store.GetMove(ctx, runID, gameID, ply)
}

// Close releases the store
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
