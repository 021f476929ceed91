package serde

import "github.com/pkg/errors"

// Decoding failures. Every decoder error wraps one of these, test with errors.Is.
var (
	ErrTruncatedInput  = errors.New("truncated input")
	ErrInvalidEncoding = errors.New("invalid encoding")
	ErrInvalidUTF8     = errors.New("invalid utf-8")
)
