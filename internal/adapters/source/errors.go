package source

import "errors"

var (
	ErrInvalidDocument = errors.New("invalid round document")
	ErrNoDocuments     = errors.New("no round documents found")
)
