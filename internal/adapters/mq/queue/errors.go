package queue

import "errors"

// ErrClosed is returned by Next once the queue is closed and drained.
var ErrClosed = errors.New("refresh queue closed")
