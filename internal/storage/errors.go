package storage

import "errors"

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrEmptyHistory    = errors.New("report has no history")
	ErrUnsupportedType = errors.New("unsupported storage type")
	ErrMissingDataPath = errors.New("storage requires a data path")
	ErrCorruptData     = errors.New("corrupt data")
	ErrStorageClosed   = errors.New("storage is closed")
)
