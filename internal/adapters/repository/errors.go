package repository

import "errors"

var (
	ErrNotFound     = errors.New("wrestler not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidEntry = errors.New("entry has no wrestler id")
)
