package embedding

import "fmt"

// ProviderError reports a failed embedding request. Callers must treat it as
// a hard failure rather than substituting a default vector.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding provider %s failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("embedding provider %s failed: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
