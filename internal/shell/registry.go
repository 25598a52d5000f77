// FILE: internal/shell/registry.go
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"chesspipe/internal/display"
	"chesspipe/internal/storage"
)

// ErrExit is returned by the exit command, the read loop stops on it
var ErrExit = errors.New("exit")

// Session is the state shared by shell commands
type Session struct {
	Store   *storage.Store
	Out     io.Writer
	Colors  display.Palette
	RunID   string // empty means latest
	GameID  int
	Context context.Context
}

func (s *Session) ctx() context.Context {
	if s.Context != nil {
		return s.Context
	}
	return context.Background()
}

// Command defines a shell command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(*Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  *Session
	commands map[string]*Command
	order    []string
}

func NewRegistry(session *Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerDatasetCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the shell",
		Usage:       "exit",
		Handler: func(*Session, []string) error {
			return ErrExit
		},
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
	r.order = append(r.order, cmd.Name)
}

// Execute runs one input line. Command failures are printed, only ErrExit
// is returned.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	s := r.session
	c := s.Colors

	cmd, exists := r.commands[parts[0]]
	if !exists {
		fmt.Fprintf(s.Out, "%sUnknown command: %s%s\n", c.Red, parts[0], c.Reset)
		fmt.Fprintf(s.Out, "Type 'help' for available commands\n")
		return nil
	}

	if err := cmd.Handler(s, parts[1:]); err != nil {
		if errors.Is(err, ErrExit) {
			return err
		}
		fmt.Fprintf(s.Out, "%sError: %s%s\n", c.Red, err.Error(), c.Reset)
	}
	return nil
}

// Names returns the registered long names in registration order
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

func (r *Registry) helpHandler(s *Session, args []string) error {
	c := s.Colors
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(s.Out, "\n%s%s%s - %s\n", c.Cyan, cmd.Name, c.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(s.Out, "Short form: %s%s%s\n", c.Cyan, cmd.ShortName, c.Reset)
		}
		fmt.Fprintf(s.Out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(s.Out, "\n%sAvailable Commands:%s\n\n", c.Cyan, c.Reset)
	for _, name := range r.order {
		cmd := r.commands[name]
		shortPart := ""
		if cmd.ShortName != "" {
			shortPart = fmt.Sprintf("[%s%s%s] ", c.Cyan, cmd.ShortName, c.Reset)
		}
		fmt.Fprintf(s.Out, "  %s%-8s %s\n", shortPart, cmd.Name, cmd.Description)
	}
	fmt.Fprintf(s.Out, "\nType 'help <command>' for detailed usage\n")
	return nil
}
