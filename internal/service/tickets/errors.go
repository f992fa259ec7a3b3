package tickets

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCategoryNotFound   = errors.New("ticket category not found")
	ErrSoldOut            = errors.New("tickets sold out")
	ErrRateLimited        = errors.New("rate limited")
	ErrPurchaseInProgress = errors.New("purchase with this idempotency key in progress")
	ErrInvalidTemplate    = errors.New("invalid template")
)

// RateLimitError carries the wait suggested by the limiter.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
