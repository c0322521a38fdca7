package model

import "errors"

var (
	// ErrNotFound is returned when an agent id is out of range.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for out-of-domain construction or run parameters.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUndefinedMetric is returned when a ratio has a zero denominator.
	ErrUndefinedMetric = errors.New("undefined metric")
	// ErrInvalidState is returned when an operation is not allowed in the current run state.
	ErrInvalidState = errors.New("invalid state")
)
