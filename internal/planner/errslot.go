package planner

import (
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"astroplanner/internal/domain"
)

// ErrorSlot holds the single human-readable error shown to the user. A new
// message always replaces the previous one.
type ErrorSlot struct {
	mu     sync.Mutex
	msg    string
	logger *zap.Logger
}

// NewErrorSlot creates an empty slot.
func NewErrorSlot(logger *zap.Logger) *ErrorSlot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorSlot{logger: logger.Named("errors")}
}

// Set replaces the message.
func (s *ErrorSlot) Set(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Fail records err. Local validation errors are shown as-is; anything else
// is prefixed with the failed action.
func (s *ErrorSlot) Fail(action string, err error) {
	if err == nil {
		return
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.Set(verr.Msg)
		return
	}
	s.logger.Warn(action, zap.Error(err))
	s.Set(action + ": " + Describe(err))
}

// Clear empties the slot.
func (s *ErrorSlot) Clear() {
	s.Set("")
}

// Message returns the current message, or "" when there is none.
func (s *ErrorSlot) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// Describe renders err for people, preferring the server's own detail.
func Describe(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return http.StatusText(apiErr.StatusCode)
	}
	var tErr *domain.TransportError
	if errors.As(err, &tErr) {
		return "network error: " + tErr.Err.Error()
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Msg
	}
	return err.Error()
}
