package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFinalOutput is returned when no event carries the agent's structured output.
	ErrNoFinalOutput = errors.New("no final structured output in agent response")

	// ErrInvalidPayload is returned when the agent's output text is not valid JSON.
	ErrInvalidPayload = errors.New("agent output is not valid JSON")

	// ErrEmptyResponse is returned when the runtime answers with zero events.
	ErrEmptyResponse = errors.New("agent returned no events")

	// ErrInvalidResponse is returned when the response body is not a JSON array of events.
	ErrInvalidResponse = errors.New("malformed agent response")
)

// StatusError is returned when the runtime answers with a non-2xx status.
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
