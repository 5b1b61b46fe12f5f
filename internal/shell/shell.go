// Package shell implements the line-oriented command interface: a registry
// of named commands with prefix matching, shell-style tokenizing and
// per-command option parsing.
package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrAmbiguousCommand = errors.New("ambiguous command")
	ErrExit             = errors.New("exit")
)

// RunFunc executes a command with its arguments, excluding the command name.
type RunFunc func(out io.Writer, args []string) error

// Command is a named shell command.
type Command struct {
	Name    string
	Summary string
	Run     RunFunc
}

// Shell dispatches command lines. Safe for concurrent use; commands run one
// at a time.
type Shell struct {
	mu       sync.Mutex
	out      io.Writer
	commands map[string]Command
}

// New creates a Shell writing to out, with the help command registered.
func New(out io.Writer) *Shell {
	s := &Shell{
		out:      out,
		commands: make(map[string]Command),
	}
	s.Register(Command{
		Name:    "help",
		Summary: "list commands",
		Run:     s.help,
	})
	return s
}

// Register adds or replaces a command.
func (s *Shell) Register(c Command) {
	s.mu.Lock()
	s.commands[c.Name] = c
	s.mu.Unlock()
}

// Names returns the registered command names, sorted.
func (s *Shell) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names()
}

func (s *Shell) names() []string {
	names := make([]string, 0, len(s.commands))
	for k := range s.commands {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Find returns the command called name, or the only command name is a
// prefix of.
func (s *Shell) Find(name string) (Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(name)
}

func (s *Shell) find(name string) (Command, error) {
	if cmd, ok := s.commands[name]; ok {
		return cmd, nil
	}

	var matches []string
	for _, k := range s.names() {
		if strings.HasPrefix(k, name) {
			matches = append(matches, k)
		}
	}

	switch len(matches) {
	case 0:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	case 1:
		return s.commands[matches[0]], nil
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrAmbiguousCommand, strings.Join(matches, ", "))
	}
}

// Execute tokenizes line and runs the matching command. Empty lines are
// ignored.
func (s *Shell) Execute(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parsing command line: %w", err)
	}
	if len(args) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := s.find(args[0])
	if err != nil {
		return err
	}
	return cmd.Run(s.out, args[1:])
}

// help runs with s.mu held.
func (s *Shell) help(out io.Writer, _ []string) error {
	for _, name := range s.names() {
		fmt.Fprintf(out, "  %-8s %s\n", name, s.commands[name].Summary)
	}
	return nil
}
