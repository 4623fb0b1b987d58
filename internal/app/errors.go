package service

import (
	"errors"

	"github.com/okian/grapple/internal/adapters/repository"
)

var (
	// ErrNoRun is returned by reads and Extend before the first Run.
	ErrNoRun = errors.New("no pipeline run yet")
	// ErrNotFound is returned for an unknown wrestler.
	ErrNotFound = repository.ErrNotFound
)
