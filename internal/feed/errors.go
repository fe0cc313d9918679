package feed

import "errors"

var (
	ErrAlreadyWatching = errors.New("scroll listener already attached")
	ErrClosed          = errors.New("feed is closed")
)
