package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	ErrTodoNotFound = fmt.Errorf("todo %w", ErrNotFound)
	ErrStepNotFound = fmt.Errorf("step %w", ErrNotFound)
)
