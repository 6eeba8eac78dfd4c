package service

import "errors"

// Sentinel errors for run orchestration.
var (
	ErrSamplesFailed = errors.New("samples failed")
	ErrBatchGap      = errors.New("missing batch in output sequence")
	ErrMissingSkim   = errors.New("missing skim file")
)
