package phonepe

import (
	"errors"
	"fmt"
)

// Error is a failure reported by the PhonePe API (or by callback
// validation). HTTPStatus carries the upstream status code so the
// relay can mirror it.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	Data       map[string]any
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("phonepe: %s (%s)", e.Message, e.Code)
	}
	return "phonepe: " + e.Message
}

func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
