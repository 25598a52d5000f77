// FILE: internal/shell/dataset.go
package shell

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"chesspipe/internal/board"
	"chesspipe/internal/storage"
)

func (r *Registry) registerDatasetCommands() {
	r.Register(&Command{
		Name:        "runs",
		ShortName:   "r",
		Description: "List stored runs",
		Usage:       "runs",
		Handler:     runsHandler,
	})

	r.Register(&Command{
		Name:        "use",
		ShortName:   "u",
		Description: "Select a run, 'latest' clears the selection",
		Usage:       "use <runId|latest>",
		Handler:     useHandler,
	})

	r.Register(&Command{
		Name:        "games",
		ShortName:   "g",
		Description: "List games of the selected run",
		Usage:       "games [player]",
		Handler:     gamesHandler,
	})

	r.Register(&Command{
		Name:        "moves",
		ShortName:   "m",
		Description: "List plies of a game",
		Usage:       "moves <gameId> [fromPly] [toPly]",
		Handler:     movesHandler,
	})

	r.Register(&Command{
		Name:        "board",
		ShortName:   "b",
		Description: "Show the position after a ply",
		Usage:       "board <gameId> <ply>",
		Handler:     boardHandler,
	})
}

// runID resolves the selected run, falling back to the latest
func (s *Session) runID() (string, error) {
	if s.RunID != "" {
		return s.RunID, nil
	}
	run, err := s.Store.LatestRun(s.ctx())
	if err != nil {
		return "", fmt.Errorf("no run available: %w", err)
	}
	return run.RunID, nil
}

func runsHandler(s *Session, args []string) error {
	runs, err := s.Store.ListRuns(s.ctx())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(s.Out, "No runs found")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run ID\tUser\tStarted\tGames\tPlies\tPositions")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.RunID, run.Username, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Games, run.Plies, run.UniquePositions)
	}
	return w.Flush()
}

func useHandler(s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: use <runId|latest>")
	}
	if args[0] == "latest" {
		s.RunID = ""
		fmt.Fprintln(s.Out, "Using latest run")
		return nil
	}
	s.RunID = args[0]
	fmt.Fprintf(s.Out, "Using run %s\n", s.RunID)
	return nil
}

func gamesHandler(s *Session, args []string) error {
	runID, err := s.runID()
	if err != nil {
		return err
	}
	filter := storage.GameFilter{RunID: runID}
	if len(args) > 0 {
		filter.Player = args[0]
	}
	games, err := s.Store.QueryGames(s.ctx(), filter)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(s.Out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game\tWhite\tBlack\tResult\tECO\tStart")
	for _, g := range games {
		start := ""
		if !g.StartTimeUTC.IsZero() {
			start = g.StartTimeUTC.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", g.GameID, g.White, g.Black, g.Result, g.ECO, start)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "\nFound %d game(s)\n", len(games))
	return nil
}

func movesHandler(s *Session, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("usage: moves <gameId> [fromPly] [toPly]")
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid number %q", a)
		}
		nums[i] = n
	}
	runID, err := s.runID()
	if err != nil {
		return err
	}

	filter := storage.MoveFilter{RunID: runID, GameID: nums[0]}
	if len(nums) > 1 {
		filter.FromPly = nums[1]
	}
	if len(nums) > 2 {
		filter.ToPly = nums[2]
	}
	moves, err := s.Store.QueryMoves(s.ctx(), filter)
	if err != nil {
		return err
	}
	if len(moves) == 0 {
		fmt.Fprintln(s.Out, "No moves found")
		return nil
	}
	s.GameID = nums[0]

	c := s.Colors
	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tSide\tMove\tClock\tEval\tEngine")
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			m.Ply, c.ColorForTurn(m.Color), m.Move, m.Clock, c.Eval(m.Eval), c.Eval(m.Evaluation))
	}
	return w.Flush()
}

func boardHandler(s *Session, args []string) error {
	var gameID, ply int
	var err error
	switch len(args) {
	case 1:
		// game from the last moves listing
		gameID = s.GameID
		ply, err = strconv.Atoi(args[0])
	case 2:
		if gameID, err = strconv.Atoi(args[0]); err == nil {
			ply, err = strconv.Atoi(args[1])
		}
	default:
		return fmt.Errorf("usage: board <gameId> <ply>")
	}
	if err != nil || gameID < 1 || ply < 1 {
		return fmt.Errorf("usage: board <gameId> <ply>")
	}

	runID, err := s.runID()
	if err != nil {
		return err
	}
	m, err := s.Store.GetMove(s.ctx(), runID, gameID, ply)
	if err != nil {
		return fmt.Errorf("game %d ply %d: %w", gameID, ply, err)
	}
	b, err := board.ParseFEN(m.Position)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.Out)
	s.Colors.RenderBoard(s.Out, b.ToASCII())
	fmt.Fprintf(s.Out, "\n%s played %s, %s to move\n", s.Colors.ColorForTurn(m.Color), m.Move, s.Colors.ColorForTurn(b.Turn()))
	fmt.Fprintln(s.Out, strings.TrimSpace(m.Position))
	return nil
}
