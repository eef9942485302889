package llm

import "fmt"

// ConfigurationError is returned when a provider credential is missing at the
// time of first use. Clients are lazily constructed, so this surfaces on the
// first call, not at process start.
type ConfigurationError struct {
	Provider Provider
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %q is not configured: %s is not set", e.Provider, e.Missing)
}

// UpstreamError wraps a failure from a hosted model backend.
type UpstreamError struct {
	Provider Provider
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q request failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
