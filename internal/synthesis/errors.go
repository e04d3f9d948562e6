package synthesis

import "errors"

// ErrSynthesis is returned when no attempt produced a valid draft.
var ErrSynthesis = errors.New("synthesis failed")
