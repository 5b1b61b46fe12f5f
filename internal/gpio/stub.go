//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(chipName string, lines []int) (*RealOutputs, error) {
	return nil, errUnsupported
}

func (o *RealOutputs) SetHigh(line int) error { return errUnsupported }
func (o *RealOutputs) SetLow(line int) error  { return errUnsupported }
func (o *RealOutputs) Close() error           { return nil }

// RealInputs is not available on non-Linux platforms.
type RealInputs struct{}

// NewRealInputs returns an error on non-Linux platforms.
func NewRealInputs(chipName string, lines []int) (*RealInputs, error) {
	return nil, errUnsupported
}

func (r *RealInputs) Read() ([]bool, error) { return nil, errUnsupported }
func (r *RealInputs) Close() error          { return nil }
