package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// FetchError reports a failure loading repositories or a class catalog.
// It is recoverable: the caller may simply retry.
type FetchError struct {
	Op  string // "repositories" or "classes"
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError reports a failed export. Message carries the server's own
// wording when it could be extracted.
type SubmissionError struct {
	Status  int // 0 for transport failures
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("export failed: %s", e.Message)
	}
	return fmt.Sprintf("export failed (%d): %s", e.Status, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// StatusError is returned for non-2xx responses to fetch calls
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// errorMessage extracts a human readable message from an error response body:
// a JSON "message" or "error" member, otherwise the raw text, otherwise the
// status text.
func errorMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}

	if text != "" {
		return text
	}
	if st := http.StatusText(status); st != "" {
		return st
	}
	return "Unknown error occurred"
}
