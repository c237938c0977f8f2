package hotels

import "errors"

// Error is a domain failure with a stable code used in logs and metrics.
type Error struct {
	code string
	msg  string
	err  error
}

func newError(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Code returns the stable error code.
func (e *Error) Code() string { return e.code }

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.err }

// Is matches any *Error with the same code, so wrapped copies compare equal
// to the package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) error {
	if cause == nil {
		return e
	}
	return &Error{code: e.code, msg: e.msg, err: cause}
}

var (
	// ErrCityNotFound means the directory has no destination for the city name.
	ErrCityNotFound = newError("CITY_NOT_FOUND", "city not found")
	// ErrInvalidHotelCount means the hotel count is not in 1..MaxHotels.
	ErrInvalidHotelCount = newError("INVALID_HOTEL_COUNT", "invalid hotel count")
	// ErrDirectoryUnavailable means the hotels API call failed or timed out.
	ErrDirectoryUnavailable = newError("DIRECTORY_UNAVAILABLE", "hotel directory unavailable")
	// ErrStoreLocked means the history store is in use and cannot be reset now.
	ErrStoreLocked = newError("STORE_LOCKED", "history store is locked")
)
