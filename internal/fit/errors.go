package fit

import "errors"

var (
	ErrNoCurves       = errors.New("at least one curve is required")
	ErrCurveShape     = errors.New("curve arrays must have equal nonzero length")
	ErrCurveCount     = errors.New("curve list does not match parameter binding")
	ErrCurveIndex     = errors.New("curve index out of range")
	ErrParamNotFound  = errors.New("parameter not found")
	ErrNoValue        = errors.New("parameter has no value")
	ErrInvalidScope   = errors.New("invalid parameter scope")
	ErrNotValidated   = errors.New("parameter set has not been validated")
	ErrLengthMismatch = errors.New("packed vector length mismatch")
	ErrNoFittedParams = errors.New("no fitted parameters")
	ErrNotConverged   = errors.New("fit failed to converge (flat axis)")
	ErrModelExists    = errors.New("model already registered")
	ErrModelNotFound  = errors.New("model not found")
)
