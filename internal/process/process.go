// Package process terminates browser process trees left behind by the
// HTML to PDF converter.
package process

import "errors"

// ErrInvalidPID rejects pids that would target the caller's own group.
var ErrInvalidPID = errors.New("invalid process id")
