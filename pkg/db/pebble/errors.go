package pebble

import "errors"

var (
	ErrClosed          = errors.New("pebble store: database is closed")
	ErrNotFound        = errors.New("pebble store: key not found")
	ErrBatchDone       = errors.New("pebble store: batch already committed or closed")
	ErrIteratorInvalid = errors.New("pebble store: iterator is not positioned")
)
