package ratelimit

import "errors"

var ErrInvalidLimit = errors.New("ratelimit.invalid_limit")
