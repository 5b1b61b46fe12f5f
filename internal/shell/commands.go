package shell

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// LEDs is the blink scheduler as seen by the led command.
type LEDs interface {
	Configure(ch int, onMs, offMs uint32) error
}

// Display is the LCD as seen by the lcd command.
type Display interface {
	Set(segment int, value uint8, clear, blink bool) error
	SetAll(value uint8, clear, blink bool)
}

// Random is the random source as seen by the random command.
type Random interface {
	Seed() uint16
	Uint32() uint32
	Int32() int32
}

// Clock is the shared counter as seen by the system command.
type Clock interface {
	FrequencyHz() uint32
	Count() uint16
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

// LEDCommand configures LED blinking:
//
//	led -l0 -o500 -O250
//	led --led=1 --on=0 --off=0
func LEDCommand(leds LEDs) Command {
	return Command{
		Name:    "led",
		Summary: "configure LED blinking",
		Run: func(out io.Writer, args []string) error {
			fs := newFlagSet("led")
			help := fs.BoolP("help", "h", false, "")
			led := fs.IntP("led", "l", 0, "")
			on := fs.Uint32P("on", "o", 0, "")
			off := fs.Uint32P("off", "O", 0, "")
			if err := parse(fs, args); err != nil {
				return err
			}

			if *help {
				fmt.Fprintln(out, "usage: led [OPTION]")
				fmt.Fprintln(out, "  -h, --help")
				fmt.Fprintln(out, "  -l[LED], --led=[LED]")
				fmt.Fprintln(out, "  -o[ON_MILLISECONDS], --on=[ON_MILLISECONDS]")
				fmt.Fprintln(out, "  -O[OFF_MILLISECONDS], --off=[OFF_MILLISECONDS]")
			}

			if fs.Changed("led") && fs.Changed("on") && fs.Changed("off") {
				fmt.Fprint(out, "Enable Blink: ")
				if err := leds.Configure(*led, *on, *off); err != nil {
					fmt.Fprintln(out, "FAILURE")
				} else {
					fmt.Fprintln(out, "SUCCESS")
				}
			}
			return nil
		},
	}
}

// LCDCommand writes LCD segment memory.
func LCDCommand(d Display) Command {
	return Command{
		Name:    "lcd",
		Summary: "set LCD segments",
		Run: func(out io.Writer, args []string) error {
			fs := newFlagSet("lcd")
			all := fs.BoolP("all", "a", false, "")
			blink := fs.BoolP("blink", "b", false, "")
			clearMem := fs.BoolP("clear", "c", false, "")
			help := fs.BoolP("help", "h", false, "")
			segment := fs.IntP("segment", "s", 0, "")
			value := fs.Uint8P("value", "v", 0, "")
			if err := parse(fs, args); err != nil {
				return err
			}

			if *all {
				fmt.Fprintln(out, "All")
				// Filling the whole display always starts from cleared memory.
				d.SetAll(0xFF, true, *blink)
			}

			if *help {
				fmt.Fprintln(out, "usage: lcd [OPTION]")
				fmt.Fprintln(out, "  -a, --all")
				fmt.Fprintln(out, "  -b, --blink")
				fmt.Fprintln(out, "  -c, --clear")
				fmt.Fprintln(out, "  -h, --help")
				fmt.Fprintln(out, "  -s[SEGMENT], --segment=[SEGMENT]")
				fmt.Fprintln(out, "  -v[VALUE], --value=[VALUE]")
			}

			if fs.Changed("segment") && fs.Changed("value") {
				if err := d.Set(*segment, *value, *clearMem, *blink); err != nil {
					return err
				}
				fmt.Fprintln(out, "Set")
			}
			return nil
		},
	}
}

// RandomCommand prints pseudo-random numbers.
func RandomCommand(r Random) Command {
	return Command{
		Name:    "random",
		Summary: "print random numbers",
		Run: func(out io.Writer, args []string) error {
			fs := newFlagSet("random")
			count := fs.Uint32P("count", "c", 1, "")
			help := fs.BoolP("help", "h", false, "")
			seed := fs.BoolP("seed", "s", false, "")
			signed := fs.BoolP("signed", "S", false, "")
			unsigned := fs.BoolP("unsigned", "u", false, "")
			if err := parse(fs, args); err != nil {
				return err
			}

			if *help {
				fmt.Fprintln(out, "usage: random [OPTION]")
				fmt.Fprintln(out, "  -c[COUNT], --count=[COUNT]")
				fmt.Fprintln(out, "  -h, --help")
				fmt.Fprintln(out, "  -s, --seed")
				fmt.Fprintln(out, "  -S, --signed")
				fmt.Fprintln(out, "  -u, --unsigned")
			}

			if *seed {
				fmt.Fprintf(out, "Seed: %d\n", r.Seed())
			}
			if *signed {
				fmt.Fprintln(out, "Random Signed 32-Bit Integer(s):")
				for i := uint32(0); i < *count; i++ {
					fmt.Fprintf(out, "%d: %d\n", i+1, r.Int32())
				}
			}
			if *unsigned {
				fmt.Fprintln(out, "Random Unsigned 32-Bit Integer(s):")
				for i := uint32(0); i < *count; i++ {
					fmt.Fprintf(out, "%d: %d\n", i+1, r.Uint32())
				}
			}
			return nil
		},
	}
}

// SystemOptions wires the system command.
type SystemOptions struct {
	Clock Clock
	Start time.Time
	Now   func() time.Time
	// Reset returns the system to its power-on state.
	Reset func()
}

// SystemCommand reports clocks and resets the system.
func SystemCommand(opts SystemOptions) Command {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Command{
		Name:    "system",
		Summary: "show clocks or reset",
		Run: func(out io.Writer, args []string) error {
			fs := newFlagSet("system")
			clock := fs.BoolP("clock", "c", false, "")
			help := fs.BoolP("help", "h", false, "")
			reset := fs.BoolP("reset", "r", false, "")
			if err := parse(fs, args); err != nil {
				return err
			}

			if *clock {
				fmt.Fprintf(out, "Counter Clock: %d Hz\n", opts.Clock.FrequencyHz())
				fmt.Fprintf(out, "Counter: %d\n", opts.Clock.Count())
				fmt.Fprintf(out, "Uptime: %s\n", opts.Now().Sub(opts.Start).Truncate(time.Second))
			}

			if *help {
				fmt.Fprintln(out, "usage: system [OPTION]")
				fmt.Fprintln(out, "  -c, --clock")
				fmt.Fprintln(out, "  -h, --help")
				fmt.Fprintln(out, "  -r, --reset")
			}

			// Reset runs last so the output above is complete.
			if *reset {
				fmt.Fprintln(out, "Reset System")
				if opts.Reset != nil {
					opts.Reset()
				}
			}
			return nil
		},
	}
}

// ExitCommand ends an interactive session.
func ExitCommand() Command {
	return Command{
		Name:    "exit",
		Summary: "leave the shell",
		Run: func(io.Writer, []string) error {
			return ErrExit
		},
	}
}
