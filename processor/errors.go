package processor

import (
	"fmt"
	"strings"
)

// InputNotFoundError reports source rasters missing on disk. It is
// raised before any dataset is opened and names every absent path.
type InputNotFoundError struct {
	Paths []string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input not found: %s", strings.Join(e.Paths, ", "))
}

// ShapeMismatchError reports input grids whose dimensions differ.
type ShapeMismatchError struct {
	RedWidth, RedHeight int
	NirWidth, NirHeight int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: red (height:%d, width:%d), nir (height:%d, width:%d)",
		e.RedHeight, e.RedWidth, e.NirHeight, e.NirWidth)
}

// ProcessingError wraps any other decode, compute or encode failure
// with the operation that produced it.
type ProcessingError struct {
	Op    string
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}
