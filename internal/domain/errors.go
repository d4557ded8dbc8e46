// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransactionNotFound is returned when no transaction matches the
	// given internal id or checkout request id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrUserNotFound is returned when a plan change matches no user row.
	ErrUserNotFound = errors.New("user not found")

	// ErrMalformedCallback is returned when a callback envelope is missing
	// the expected Body.stkCallback structure.
	ErrMalformedCallback = errors.New("invalid callback data")
)

// ValidationError carries every violation found in a client request.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

// AuthError is returned when the gateway rejects the credential handshake
// or the token request fails outright.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to get access token: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// GatewayError is returned on a non-2xx gateway response or network failure,
// carrying the gateway's own error message when one was available.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return "gateway error: " + e.Message
	}
	return fmt.Sprintf("gateway error: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
