package client

import "errors"

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidHistory    = errors.New("invalid history")
	ErrUnsupported       = errors.New("operation not supported")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidStatusCode = errors.New("invalid status code")
	ErrRetryExhausted    = errors.New("retry attempts exhausted")
	ErrRequestFailed     = errors.New("request failed")
	ErrResponseTooLarge  = errors.New("response too large")
)
