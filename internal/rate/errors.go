package rate

import "errors"

// ErrRateLimited is an exported constant or variable used by the authentication engine.
var ErrRateLimited = errors.New("rate: limit exceeded")

// ErrUnknownPolicy is an exported constant or variable used by the authentication engine.
var ErrUnknownPolicy = errors.New("rate: unknown policy")
