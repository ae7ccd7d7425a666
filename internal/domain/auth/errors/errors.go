package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrNetwork is only produced client-side, when the service cannot be reached.
	ErrNetwork = errors.New("network error")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// NewDuplicate reports a uniqueness violation as a validation failure while
// keeping ErrAlreadyExists reachable through errors.Is.
func NewDuplicate(msg string) error {
	return fmt.Errorf("%w: %w: %s", ErrInvalidArgument, ErrAlreadyExists, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func WrapNetwork(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrNetwork, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsMissingToken(err error) bool {
	return errors.Is(err, ErrMissingToken)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// ClientMessage strips sentinel prefixes so a validation error can be shown
// to the caller as plain text.
func ClientMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{ErrInvalidArgument.Error() + ": ", ErrAlreadyExists.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
