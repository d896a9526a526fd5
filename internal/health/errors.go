package health

import "errors"

// ErrInvalidArgument is returned by the calculators when an input is outside
// the domain of the formula.
var ErrInvalidArgument = errors.New("invalid argument")
