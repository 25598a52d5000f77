// FILE: internal/engine/analyzer.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"chesspipe/internal/board"
	"chesspipe/internal/core"
)

// ErrInvalidPosition is returned for keys that are not a usable FEN
var ErrInvalidPosition = errors.New("invalid position")

// Evaluator scores a single position from white's point of view
type Evaluator interface {
	Evaluate(ctx context.Context, fen string) (core.Eval, error)
	Close() error
}

// Options configure an engine backed evaluator
type Options struct {
	Path    string
	Limits  Limits
	Timeout time.Duration // per position, 0 means no extra bound
	Threads int
	HashMB  int
}

// Analyzer is an Evaluator over one UCI process
type Analyzer struct {
	uci  *UCI
	opts Options
}

func NewAnalyzer(ctx context.Context, opts Options) (*Analyzer, error) {
	uci, err := New(ctx, opts.Path)
	if err != nil {
		return nil, err
	}
	if opts.Threads > 0 {
		uci.SetOption("Threads", opts.Threads)
	}
	if opts.HashMB > 0 {
		uci.SetOption("Hash", opts.HashMB)
	}
	if err := uci.NewGame(ctx); err != nil {
		uci.Close()
		return nil, err
	}
	return &Analyzer{uci: uci, opts: opts}, nil
}

// Evaluate searches fen and turns the side to move score into white's view
func (a *Analyzer) Evaluate(ctx context.Context, fen string) (core.Eval, error) {
	if !isFENSafe(fen) {
		return core.Eval{}, fmt.Errorf("%w: %q", ErrInvalidPosition, fen)
	}
	b, err := board.ParseFEN(fen)
	if err != nil {
		return core.Eval{}, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	a.uci.SetPosition(fen)
	res, err := a.uci.Search(ctx, a.opts.Limits)
	if err != nil {
		return core.Eval{}, err
	}

	if b.Turn() == core.ColorBlack {
		return res.Eval.Negate(), nil
	}
	return res.Eval, nil
}

func (a *Analyzer) Close() error {
	return a.uci.Close()
}

var fenCharset = regexp.MustCompile(`^[pnbrqkPNBRQK1-8/ wb\-KQkqa-h0-9]+$`)

// isFENSafe keeps anything that could smuggle a second UCI command out of
// the position line
func isFENSafe(fen string) bool {
	return len(fen) > 0 && len(fen) <= 100 && fenCharset.MatchString(fen)
}
