package app

import "errors"

var (
	// ErrLocationNotFound indicates the location does not exist or belongs to another user.
	ErrLocationNotFound = errors.New("location not found")
	// ErrSessionNotFound indicates the session does not exist or belongs to another user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrLogNotFound indicates the log does not exist on that session.
	ErrLogNotFound = errors.New("log not found")
	// ErrUpstream wraps failures of the sky, weather and geocoding providers.
	ErrUpstream = errors.New("upstream service failed")
)

// UpstreamError is a provider failure. It matches ErrUpstream with errors.Is
// and reads as the provider's own message.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
