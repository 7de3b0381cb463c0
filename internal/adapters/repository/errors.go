package repository

import "errors"

// Sentinel kinds for summary store errors.
var (
	ErrNotFound         = errors.New("event not found")
	ErrAlreadyRecorded  = errors.New("event already recorded")
	ErrInvalidHistogram = errors.New("invalid histogram binning")
)
