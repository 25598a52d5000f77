// FILE: internal/service/pipeline.go
package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chesspipe/internal/dataset"
	"chesspipe/internal/engine"
	"chesspipe/internal/fetch"
	"chesspipe/internal/metadata"
	"chesspipe/internal/movetable"
	"chesspipe/internal/pgn"
	"chesspipe/internal/positions"
	"chesspipe/internal/storage"

	"github.com/google/uuid"
)

// Result is everything one run produced
type Result struct {
	RunID     string
	StartedAt time.Time
	Games     []metadata.Record
	Moves     *movetable.Table // evaluation column populated
	Merged    []dataset.Row
	Positions positions.Stats
	Fill      engine.FillStats
}

// Run executes the pipeline once: archive, metadata, move table, position
// set, evaluation, repopulation, merge, then persistence and export
func (s *Service) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log.Printf("Run %s started", res.RunID)

	archive, source, err := s.openArchive(ctx)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	raw, err := pgn.ReadAll(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", source, err)
	}
	log.Printf("Read %d games from %s", len(raw), source)

	res.Games = metadata.CleanAll(metadata.Extract(raw))

	policy, err := movetable.ParsePolicy(s.cfg.Parse.Policy)
	if err != nil {
		return nil, err
	}
	builder := movetable.Builder{Policy: policy, ProgressEvery: s.cfg.Parse.ProgressEvery}
	table, err := builder.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build move table: %w", err)
	}

	set := positions.Deduplicate(table)
	res.Positions = positions.Summarize(table, set)

	if s.factory != nil {
		pool := engine.NewPool(s.cfg.Engine.Workers, s.factory)
		res.Fill, err = pool.Fill(ctx, set)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate positions: %w", err)
		}
	} else {
		log.Printf("Engine disabled, evaluation column left unset")
	}

	// Fill has returned, every worker is done with the set
	res.Moves, err = positions.Repopulate(table, set)
	if err != nil {
		return nil, err
	}
	res.Merged = dataset.Merge(res.Moves, res.Games)

	if err := s.persist(ctx, res, source, set.Len()); err != nil {
		return nil, err
	}
	if s.cfg.Output.CSV {
		if err := s.export(res); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	log.Printf("Run %s finished: %d games, %d plies, %d unique positions in %s",
		res.RunID, len(res.Games), res.Moves.Len(), res.Positions.Unique, time.Since(res.StartedAt).Round(time.Millisecond))
	return res, nil
}

// openArchive prefers a local file over a download
func (s *Service) openArchive(ctx context.Context) (io.ReadCloser, string, error) {
	in := s.cfg.Input
	if in.PGN != "" {
		f, err := os.Open(in.PGN)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open archive: %w", err)
		}
		return f, in.PGN, nil
	}

	r := fetch.Range{From: in.From, To: in.To}
	if err := r.Validate(); err != nil {
		return nil, "", err
	}
	text, err := s.fetcher.Download(ctx, in.Username, r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download archive of %s: %w", in.Username, err)
	}

	source := "chess.com/" + strings.ToLower(in.Username)
	if s.cfg.Output.Dir != "" {
		path := filepath.Join(s.cfg.Output.Dir, strings.ToLower(in.Username)+".pgn")
		if err := writeFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		}); err != nil {
			return nil, "", err
		}
		log.Printf("Saved archive to %s", path)
	}
	return io.NopCloser(strings.NewReader(text)), source, nil
}

func (s *Service) persist(ctx context.Context, res *Result, source string, unique int) error {
	if s.store == nil {
		return nil
	}
	run := storage.RunRecord{
		RunID:           res.RunID,
		Username:        s.cfg.Input.Username,
		Source:          source,
		StartedAt:       res.StartedAt,
		Games:           len(res.Games),
		Skipped:         len(res.Moves.Skipped),
		Plies:           res.Moves.Len(),
		UniquePositions: unique,
		Evaluated:       res.Fill.Evaluated,
	}
	games := storage.GamesFromMetadata(res.RunID, res.Games)
	moves := storage.MovesFromTable(res.RunID, res.Moves)
	if err := s.store.WriteRun(ctx, run, games, moves); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	log.Printf("Stored run %s (%d games, %d moves)", res.RunID, len(games), len(moves))
	return nil
}

func (s *Service) export(res *Result) error {
	dir := s.cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"moves.csv", func(w io.Writer) error { return dataset.WriteMovesCSV(w, res.Moves) }},
		{"games.csv", func(w io.Writer) error { return dataset.WriteGamesCSV(w, res.Games) }},
		{"merged.csv", func(w io.Writer) error { return dataset.WriteMergedCSV(w, res.Merged) }},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return err
		}
		log.Printf("Saved to %s", path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
