package elo

import "errors"

// Causes recorded on rating warnings.
var (
	ErrInconsistentChain = errors.New("match precedes already applied history")
	ErrHaltedChain       = errors.New("wrestler chain halted")
	ErrDuplicateMatch    = errors.New("match already applied")
)
