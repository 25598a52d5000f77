// FILE: internal/engine/engine.go
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"chesspipe/internal/core"
)

// DefaultPath is looked up on PATH when no engine binary is configured
const DefaultPath = "stockfish"

var errEngineClosed = errors.New("engine closed unexpectedly")

// UCI drives one engine process over stdin/stdout
type UCI struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	mu    sync.Mutex
}

// Limits bounds a single search, depth wins when both are set
type Limits struct {
	Depth    int
	MoveTime time.Duration
}

type SearchResult struct {
	BestMove string
	Depth    int
	Eval     core.Eval // side to move point of view
}

func New(ctx context.Context, path string) (*UCI, error) {
	if path == "" {
		path = DefaultPath
	}
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", path, err)
	}

	uci := &UCI{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
	}
	go uci.readLoop(stdout)

	if err := uci.initialize(ctx); err != nil {
		uci.Close()
		return nil, err
	}

	return uci, nil
}

// readLoop is the only reader of stdout, the channel closes with the process
func (u *UCI) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		u.lines <- scanner.Text()
	}
	close(u.lines)
}

func (u *UCI) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u.sendCommand("uci")
	if _, err := u.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("failed waiting for uciok: %w", err)
	}
	return u.waitReady(ctx)
}

func (u *UCI) waitReady(ctx context.Context) error {
	u.sendCommand("isready")
	if _, err := u.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("failed waiting for readyok: %w", err)
	}
	return nil
}

// waitFor consumes output until a line starting with prefix
func (u *UCI) waitFor(ctx context.Context, prefix string) (string, error) {
	for {
		select {
		case line, ok := <-u.lines:
			if !ok {
				return "", errEngineClosed
			}
			if strings.HasPrefix(line, prefix) {
				return line, nil
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (u *UCI) sendCommand(cmd string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.stdin, cmd)
}

// SetOption sets a named engine option such as Threads or Hash
func (u *UCI) SetOption(name string, value any) {
	u.sendCommand(fmt.Sprintf("setoption name %s value %v", name, value))
}

func (u *UCI) NewGame(ctx context.Context) error {
	u.sendCommand("ucinewgame")
	return u.waitReady(ctx)
}

func (u *UCI) SetPosition(fen string) {
	u.sendCommand("position fen " + fen)
}

// Search runs until bestmove. When ctx ends first the search is stopped and
// its bestmove drained so the next search starts on a clean stream.
func (u *UCI) Search(ctx context.Context, limits Limits) (*SearchResult, error) {
	switch {
	case limits.Depth > 0:
		u.sendCommand(fmt.Sprintf("go depth %d", limits.Depth))
	case limits.MoveTime > 0:
		u.sendCommand(fmt.Sprintf("go movetime %d", limits.MoveTime.Milliseconds()))
	default:
		return nil, fmt.Errorf("search needs a depth or move time")
	}

	result := &SearchResult{}
	for {
		select {
		case line, ok := <-u.lines:
			if !ok {
				return nil, errEngineClosed
			}
			if strings.HasPrefix(line, "info ") {
				parseInfo(line, result)
				continue
			}
			if strings.HasPrefix(line, "bestmove") {
				if parts := strings.Fields(line); len(parts) >= 2 {
					result.BestMove = parts[1]
				}
				return result, nil
			}
		case <-ctx.Done():
			u.sendCommand("stop")
			drain, cancel := context.WithTimeout(context.Background(), time.Second)
			u.waitFor(drain, "bestmove")
			cancel()
			return nil, fmt.Errorf("search aborted: %w", ctx.Err())
		}
	}
}

// parseInfo folds one info line into result. Bound scores and lines without
// a score only update the depth.
func parseInfo(line string, result *SearchResult) {
	fields := strings.Fields(line)
	var (
		eval  core.Eval
		bound bool
	)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				if d, err := strconv.Atoi(fields[i+1]); err == nil {
					result.Depth = d
				}
			}
		case "cp":
			if i+1 < len(fields) {
				if cp, err := strconv.Atoi(fields[i+1]); err == nil {
					eval = core.Score(float64(cp) / 100)
				}
			}
		case "mate":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					eval = core.Mate(n)
				}
			}
		case "lowerbound", "upperbound":
			bound = true
		case "pv", "string":
			// rest of the line is moves or free text
			i = len(fields)
		}
	}
	if eval.IsSet() && !bound {
		result.Eval = eval
	}
}

func (u *UCI) Close() error {
	go func() {
		for range u.lines {
		}
	}()
	u.sendCommand("quit")

	done := make(chan error, 1)
	go func() {
		done <- u.cmd.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(time.Second):
		// Force kill if doesn't exit gracefully
		return u.cmd.Process.Kill()
	}
}
