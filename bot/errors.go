package bot

import "github.com/pkg/errors"

// SessionError 的内容会原样回复给用户
type SessionError struct {
	Message string
}

func NewSessionError(message string) error {
	return &SessionError{Message: message}
}

func (e *SessionError) Error() string {
	return e.Message
}

func AsSessionError(err error) (*SessionError, bool) {
	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		return sessionErr, true
	}
	return nil, false
}
