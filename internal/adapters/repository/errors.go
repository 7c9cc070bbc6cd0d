package repository

import "errors"

// Sentinel kinds for state store errors.
var (
	ErrMissingUser        = errors.New("user id required")
	ErrMissingAttentionID = errors.New("attention id required")
)
