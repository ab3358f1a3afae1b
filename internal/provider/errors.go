package provider

import "errors"

// Sentinel kinds classifying a ProviderError, matching the original's
// uniform error taxonomy (base.py AIProvider).
var (
	ErrMissingKey      = errors.New("provider: missing api key")
	ErrNetwork         = errors.New("provider: network failure")
	ErrQuota           = errors.New("provider: quota exceeded")
	ErrInvalidResponse = errors.New("provider: invalid response")
	ErrTruncated       = errors.New("provider: response truncated")
)
