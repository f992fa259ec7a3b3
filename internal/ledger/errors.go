package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps every failed gateway round trip, whatever the cause.
	ErrUnavailable     = errors.New("ledger unavailable")
	ErrTokenNotFound   = errors.New("token not found")
	ErrMalformedResult = errors.New("malformed view result")
)

// RPCError is an error reported by the RPC gateway or by the contract call
// itself. It is never retried.
type RPCError struct {
	Code    int
	Name    string
	Message string
	Data    string
}

func (e *RPCError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rpc error %d (%s): %s %s", e.Code, e.Name, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s %s", e.Code, e.Message, e.Data)
}

// StatusError is a non-2xx answer from the gateway.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rpc gateway returned %d: %s", e.StatusCode, e.Body)
}
