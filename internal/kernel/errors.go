package kernel

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all kernels.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrNotPositiveDefinite = errors.New("matrix is not positive definite")
	ErrDomain              = errors.New("argument outside distribution support")
)

// DomainError reports which argument of a log-density left its support.
type DomainError struct {
	Dist  string  // Distribution name (e.g., "lognormal")
	Arg   string  // Offending argument (e.g., "y", "mu", "sigma")
	Value float64 // Offending value
	Rule  string  // Support constraint that failed (e.g., "> 0")
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s = %g, must be %s", e.Dist, e.Arg, e.Value, e.Rule)
}

// Unwrap makes errors.Is(err, ErrDomain) hold for every DomainError.
func (e *DomainError) Unwrap() error {
	return ErrDomain
}

func domainError(dist, arg string, value float64, rule string) error {
	return &DomainError{Dist: dist, Arg: arg, Value: value, Rule: rule}
}
