package common

import "errors"

var (
	ErrUnknownSize     = errors.New("unknown size")
	ErrFileNotFound    = errors.New("file not found")
	ErrNoValidSamples  = errors.New("no valid samples")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrSamplerStarted  = errors.New("sampler has already been started")
	ErrSummaryNotFound = errors.New("summary file not found")
)
