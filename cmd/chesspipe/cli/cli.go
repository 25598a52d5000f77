// FILE: cmd/chesspipe/cli/cli.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"chesspipe/internal/display"
	"chesspipe/internal/shell"
	"chesspipe/internal/storage"

	"github.com/chzyer/readline"
)

// Run is the entry point for the database mini-app
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, runs, query, moves, shell")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "runs":
		return runRuns(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	case "moves":
		return runMoves(args[1:], out)
	case "shell":
		return runShell(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// openStore parses the common -path flag plus extra flags defined by setup
func openStore(name string, args []string, setup func(*flag.FlagSet)) (*storage.Store, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if setup != nil {
		setup(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	if *path == "" {
		return nil, "", fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open store: %w", err)
	}
	return store, *path, nil
}

func runInit(args []string, out io.Writer) error {
	store, path, err := openStore("init", args, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", path)
	return nil
}

func runDelete(args []string, out io.Writer) error {
	var runID *string
	store, path, err := openStore("delete", args, func(fs *flag.FlagSet) {
		runID = fs.String("run", "", "Delete only this run (optional)")
	})
	if err != nil {
		return err
	}

	if *runID != "" {
		defer store.Close()
		if err := store.DeleteRun(context.Background(), *runID); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Fprintf(out, "Run deleted: %s\n", *runID)
		return nil
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", path)
	return nil
}

func runRuns(args []string, out io.Writer) error {
	store, _, err := openStore("runs", args, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run ID\tUser\tStarted\tGames\tSkipped\tPlies\tPositions\tEvaluated")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.RunID, r.Username, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Games, r.Skipped, r.Plies, r.UniquePositions, r.Evaluated)
	}
	return w.Flush()
}

func runQuery(args []string, out io.Writer) error {
	var runID, player, result *string
	var gameID *int
	store, _, err := openStore("query", args, func(fs *flag.FlagSet) {
		runID = fs.String("run", "", "Run ID to filter (optional, * for all)")
		gameID = fs.Int("gameId", 0, "Game ID to filter (optional)")
		player = fs.String("player", "", "Player name to filter (optional, * for all)")
		result = fs.String("result", "", "Result to filter, e.g. 1-0 (optional)")
	})
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(context.Background(), storage.GameFilter{
		RunID:  *runID,
		GameID: *gameID,
		Player: *player,
		Result: *result,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	// Print results in tabular format
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run\tGame\tWhite\tBlack\tResult\tTermination\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, g := range games {
		start := ""
		if !g.StartTimeUTC.IsZero() {
			start = g.StartTimeUTC.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			shortID(g.RunID), g.GameID, g.White, g.Black, g.Result, g.TerminationCode, start)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func runMoves(args []string, out io.Writer) error {
	var runID *string
	var gameID, from, to *int
	store, _, err := openStore("moves", args, func(fs *flag.FlagSet) {
		runID = fs.String("run", "", "Run ID (optional, latest when empty)")
		gameID = fs.Int("gameId", 0, "Game ID (required)")
		from = fs.Int("from", 0, "First ply (optional)")
		to = fs.Int("to", 0, "Last ply (optional)")
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if *gameID < 1 {
		return fmt.Errorf("game ID required")
	}
	ctx := context.Background()
	if *runID == "" {
		latest, err := store.LatestRun(ctx)
		if err != nil {
			return fmt.Errorf("no run available: %w", err)
		}
		*runID = latest.RunID
	}

	moves, err := store.QueryMoves(ctx, storage.MoveFilter{RunID: *runID, GameID: *gameID, FromPly: *from, ToPly: *to})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tColor\tMove\tClock\tEval\tEvaluation\tPosition")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Ply, m.Color, m.Move, m.Clock, m.Eval, m.Evaluation, m.Position)
	}
	return w.Flush()
}

func runShell(args []string) error {
	store, path, err := openStore("shell", args, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	colors := display.PaletteFor(os.Stdout)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colors.Prompt("chesspipe"),
		HistoryFile:     ".chesspipe_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer rl.Close()

	session := &shell.Session{Store: store, Out: rl.Stdout(), Colors: colors}
	registry := shell.NewRegistry(session)

	fmt.Fprintf(rl.Stdout(), "%sDataset shell%s\n", colors.Cyan, colors.Reset)
	fmt.Fprintf(rl.Stdout(), "%sDatabase: %s%s\n", colors.Cyan, path, colors.Reset)
	fmt.Fprintf(rl.Stdout(), "Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(buildPrompt(session))

		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "quit" {
			return nil
		}
		if err := registry.Execute(line); err != nil {
			return nil
		}
	}
}

func buildPrompt(s *shell.Session) string {
	c := s.Colors
	prompt := "chesspipe"
	var parts []string
	if s.RunID != "" {
		parts = append(parts, c.Cyan+shortID(s.RunID)+c.Reset)
	}
	if s.GameID > 0 {
		parts = append(parts, fmt.Sprintf("game %d", s.GameID))
	}
	if len(parts) > 0 {
		prompt += c.Yellow + " [" + c.Reset + strings.Join(parts, " ") + c.Yellow + "]"
	}
	return c.Prompt(prompt)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
