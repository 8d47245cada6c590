package schedule

import "errors"

var (
	ErrMalformedConflictInput = errors.New("malformed conflict input")
	ErrOperationAfterOutcome  = errors.New("operation after commit or abort")
	ErrInvalidOperation       = errors.New("invalid operation")
)
