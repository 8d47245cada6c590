package server

import "errors"

var (
	ErrStoreRequired = errors.New("report store is required")
	ErrUnknownFormat = errors.New("unknown graph format")
)
