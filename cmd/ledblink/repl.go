package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/sweeney/ledblink/internal/shell"
)

// lineReader is the part of readline the REPL loop uses.
type lineReader interface {
	Readline() (string, error)
}

type shellDeps struct {
	leds    shell.LEDs
	display shell.Display
	random  shell.Random
	clock   shell.Clock
	start   time.Time
	reset   func()
}

// registerCommands installs the daemon's commands on sh.
func registerCommands(sh *shell.Shell, d shellDeps) {
	sh.Register(shell.LEDCommand(d.leds))
	sh.Register(shell.LCDCommand(d.display))
	sh.Register(shell.RandomCommand(d.random))
	sh.Register(shell.SystemCommand(shell.SystemOptions{
		Clock: d.clock,
		Start: d.start,
		Now:   time.Now,
		Reset: d.reset,
	}))
	sh.Register(shell.ExitCommand())
}

// newShell creates the command shell on a readline terminal with prefix
// completion of command names.
func newShell(d shellDeps) (*shell.Shell, *readline.Instance, error) {
	// Register against a throwaway shell first to learn the command names
	// for the completer.
	names := shell.New(io.Discard)
	registerCommands(names, d)
	items := make([]readline.PrefixCompleterInterface, 0, len(names.Names()))
	for _, n := range names.Names() {
		items = append(items, readline.PcItem(n))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ledblink> ",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return nil, nil, err
	}

	sh := shell.New(rl.Stdout())
	registerCommands(sh, d)
	return sh, rl, nil
}

// runShell reads and executes lines until exit, EOF or an interrupt on an
// empty line.
func runShell(sh *shell.Shell, rl lineReader, out io.Writer, log zerolog.Logger) {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		} else if err == io.EOF {
			return
		} else if err != nil {
			log.Error().Err(err).Msg("shell read")
			return
		}

		err = sh.Execute(line)
		switch {
		case err == nil:
		case errors.Is(err, shell.ErrExit):
			return
		default:
			fmt.Fprintf(out, "%v\n", err)
			log.Debug().Err(err).Str("line", line).Msg("shell command failed")
		}
	}
}
