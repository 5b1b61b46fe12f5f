package gpio

import "errors"

// ErrUnknownLine is returned when writing a line that was not requested.
var ErrUnknownLine = errors.New("gpio: line not requested")
