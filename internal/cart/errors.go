package cart

import "errors"

var (
	ErrAnonymous = errors.New("cart requires an identified user")
	ErrNoCart    = errors.New("no active cart")
)
