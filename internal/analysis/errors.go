package analysis

import "errors"

var (
	ErrNilSchedule         = errors.New("schedule is required")
	ErrImplicationViolated = errors.New("property implication chain violated")
	ErrUnknownProperty     = errors.New("unknown property")
)
