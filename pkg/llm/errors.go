package llm

import "fmt"

// CompletionError reports a non-success transport response from the
// completion backend. Retryable by the caller, never retried here.
type CompletionError struct {
	StatusCode int
	Body       string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion backend error: status %d, body: %s", e.StatusCode, e.Body)
}

// ParseError reports a malformed payload from the completion backend.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed completion payload %q: %v", e.Payload, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
