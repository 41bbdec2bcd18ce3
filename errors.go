package linewise

import "errors"

const Namespace = "linewise"

var (
	ErrInvalidConfig     = errors.New(Namespace + ": invalid configuration")
	ErrInputNotFound     = errors.New(Namespace + ": input file not found or unreadable")
	ErrTransformInit     = errors.New(Namespace + ": cannot construct line transform")
	ErrTransformFailed   = errors.New(Namespace + ": line transform failed")
	ErrTransformPanicked = errors.New(Namespace + ": line transform panicked")
	ErrReorderStalled    = errors.New(Namespace + ": output reorderer stalled waiting for a missing line")
	ErrInterrupted       = errors.New(Namespace + ": processing interrupted")
	ErrDuplicateLine     = errors.New(Namespace + ": unexpected or duplicate result for line")
)
