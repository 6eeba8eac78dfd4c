package manifest

import "errors"

// Sentinel errors for manifest operations.
var (
	ErrNotFound = errors.New("manifest entry not found")
	ErrClosed   = errors.New("manifest closed")
)
