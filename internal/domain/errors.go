package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound   = errors.New("task not found")
	ErrNotTaskCreator = errors.New("not task creator")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid authentication token")

	// Undo errors
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrReversalFailed = errors.New("reversal failed")

	// Validation errors
	ErrInvalidStatus = errors.New("invalid task status")
	ErrEmptyTitle    = errors.New("title is required")
)
