package gateway

import (
	"errors"
	"fmt"
)

// Errors returned by Gateway implementations. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	// ErrValidation: required fields missing or malformed, or a status
	// transition the item does not allow.
	ErrValidation = errors.New("invalid item")
	// ErrTransport: the backend could not be reached or failed.
	ErrTransport = errors.New("backend request failed")
	// ErrUnauthenticated: no valid session accompanied the call.
	ErrUnauthenticated = fmt.Errorf("%w: not signed in", ErrTransport)
	// ErrNotFound: the target item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrPermission: the target belongs to another user.
	ErrPermission = errors.New("permission denied")
)
