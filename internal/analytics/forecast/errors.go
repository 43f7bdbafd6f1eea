package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the series is too short for the requested model.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoResiduals means a fitted model produced no usable residuals.
	ErrNoResiduals = errors.New("no residuals available for bootstrap")

	// ErrInvalidConfiguration means a non-positive horizon, lag count,
	// simulation count or block size was requested.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

func insufficientData(model string, need, have int) error {
	return fmt.Errorf("%w: %s needs at least %d points, have %d", ErrInsufficientData, model, need, have)
}

func invalidConfig(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
