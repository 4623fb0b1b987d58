package model

import "errors"

// Sentinel errors for model parsing.
var (
	ErrUnknownDecision = errors.New("unknown decision type")
	ErrUnknownOutcome  = errors.New("unknown rating outcome")
)
