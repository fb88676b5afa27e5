package window

import "errors"

// ErrInvalidLength is returned when a window of length < 1 is requested.
var ErrInvalidLength = errors.New("window: length must be >= 1")
