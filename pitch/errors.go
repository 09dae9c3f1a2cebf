package pitch

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch matches any ShapeMismatchError.
	ErrShapeMismatch = errors.New("grid shape mismatch")
	// ErrNumerical matches any NumericalError.
	ErrNumerical = errors.New("numerical error")
)

// ShapeMismatchError reports x and y coordinate arrays of different shapes.
type ShapeMismatchError struct {
	XRows, XCols int
	YRows, YCols int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("grid shape mismatch: x is %dx%d, y is %dx%d",
		e.XRows, e.XCols, e.YRows, e.YCols)
}

// Is lets errors.Is match against ErrShapeMismatch.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// NumericalError reports a singular covariance or a non-finite density.
// Either one means an upstream input broke the model's contract.
type NumericalError struct {
	Op     string
	Reason string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error in %s: %s", e.Op, e.Reason)
}

// Is lets errors.Is match against ErrNumerical.
func (e *NumericalError) Is(target error) bool { return target == ErrNumerical }
