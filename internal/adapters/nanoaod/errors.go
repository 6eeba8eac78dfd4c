package nanoaod

import "errors"

// Sentinel kinds for reader errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrNotATree      = errors.New("object is not a tree")
)
