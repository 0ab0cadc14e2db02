package shipments

import "github.com/pkg/errors"

var (
	ErrNoUser             = errors.New("user is not onboarded")
	ErrForbidden          = errors.New("admin access required")
	ErrNotFound           = errors.New("shipment not found")
	ErrInvalidTrackNumber = errors.New("invalid track number")
	ErrInvalidTransition  = errors.New("invalid payment transition")
	ErrInvalidInput       = errors.New("invalid input")
)

// LocalizedError is shown to the user as is. errors.Is matches the wrapped sentinel.
type LocalizedError struct {
	Err     error
	Message string
}

func (e *LocalizedError) Error() string { return e.Message }

func (e *LocalizedError) Unwrap() error { return e.Err }
