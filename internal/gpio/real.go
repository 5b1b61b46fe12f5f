//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives LED lines on actual hardware using the Linux GPIO
// character device.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewRealOutputs requests each line as an output, initially low.
func NewRealOutputs(chipName string, lines []int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	o := &RealOutputs{chip: chip, lines: make(map[int]*gpiocdev.Line, len(lines))}
	for _, offset := range lines {
		l, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("ledblink"))
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("request LED line %d: %w", offset, err)
		}
		o.lines[offset] = l
	}
	return o, nil
}

// SetHigh drives a line high.
func (o *RealOutputs) SetHigh(line int) error {
	return o.set(line, 1)
}

// SetLow drives a line low.
func (o *RealOutputs) SetLow(line int) error {
	return o.set(line, 0)
}

func (o *RealOutputs) set(line, v int) error {
	l, ok := o.lines[line]
	if !ok {
		return fmt.Errorf("line %d: %w", line, ErrUnknownLine)
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("set line %d: %w", line, err)
	}
	return nil
}

// Close releases the lines. Each line is returned to an input before closing
// so an LED is not left driven after the daemon exits.
func (o *RealOutputs) Close() error {
	var errs []error
	for offset, l := range o.lines {
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", offset, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", offset, err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealInputs reads button lines from actual hardware.
type RealInputs struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	values []int
}

// NewRealInputs requests the button lines as inputs with pull-up, since the
// buttons short the line to ground when pressed.
func NewRealInputs(chipName string, lines []int) (*RealInputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	if len(lines) == 0 {
		return &RealInputs{chip: chip}, nil
	}

	ls, err := chip.RequestLines(lines, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("ledblink"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button lines %v: %w", lines, err)
	}
	return &RealInputs{
		chip:   chip,
		lines:  ls,
		values: make([]int, len(lines)),
	}, nil
}

// Read returns the pressed state of each button.
// Inverts raw GPIO: raw inactive (0) = pressed.
func (r *RealInputs) Read() ([]bool, error) {
	if r.lines == nil {
		return nil, nil
	}
	if err := r.lines.Values(r.values); err != nil {
		return nil, fmt.Errorf("read button lines: %w", err)
	}
	pressed := make([]bool, len(r.values))
	for i, v := range r.values {
		pressed[i] = v == 0
	}
	return pressed, nil
}

// Close releases GPIO resources.
func (r *RealInputs) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
