package orchestrator

import "errors"

// ErrClosed is returned when a page load is reported after Close.
var ErrClosed = errors.New("orchestrator is closed")
