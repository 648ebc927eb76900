package domain

import "errors"

var (
	// ErrNotFound signals a missing film. A normal outcome, not a failure.
	ErrNotFound = errors.New("film not found")
	// ErrPersonNotFound signals a person absent from every film document.
	ErrPersonNotFound = errors.New("person not found")
	// ErrInvalidArgument signals a malformed request parameter.
	ErrInvalidArgument = errors.New("invalid argument")
)
