package enhancer

import (
	"errors"
	"fmt"
)

var (
	ErrConfig       = errors.New("invalid configuration")
	ErrInvalidPhase = errors.New("invalid phase")
	ErrShape        = errors.New("unexpected shape")
	ErrModel        = errors.New("model failure")
)

// ShapeError is returned when the model returns a tensor of a wrong shape.
type ShapeError struct {
	What     string
	Expected int
	Received int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("the model returned %d %s, but %d were expected", e.Received, e.What, e.Expected)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// ModelError wraps a failure of the feature transform or of the model.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func (e *ModelError) Is(target error) bool {
	return target == ErrModel
}
