package parser

import (
	"errors"
	"fmt"
)

var (
	ErrParse          = errors.New("parse error")
	ErrEmptyHistory   = errors.New("history is empty")
	ErrUndeclared     = errors.New("history uses an undeclared transaction")
	ErrNotInterleaved = errors.New("history is not an interleaving of the declared transactions")
)

// ParseError points at the token that could not be read.
type ParseError struct {
	Index  int
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("token %d %q: %s", e.Index, e.Token, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
