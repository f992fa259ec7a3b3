package cards

import "errors"

var (
	ErrCardNotFound = errors.New("card not found")
	ErrInvalidCall  = errors.New("invalid card call")
)
