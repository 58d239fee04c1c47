package models

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrQueryIncomplete      = errors.New("mnemonic query did not complete")
	ErrNoData               = errors.New("query did not return any data")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrMissingUnit          = errors.New("mnemonic info has no unit")
	ErrTokenRejected        = errors.New("mast token rejected")
)

// QueryIncompleteError is returned when the service status is not COMPLETE.
type QueryIncompleteError struct {
	Service string
	Status  string
}

func (e *QueryIncompleteError) Error() string {
	return fmt.Sprintf("%s: %s returned status %q", ErrQueryIncomplete, e.Service, e.Status)
}

func (e *QueryIncompleteError) Is(target error) bool { return target == ErrQueryIncomplete }

// NoDataError is returned when a COMPLETE response carries no data field.
type NoDataError struct {
	Service string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoData, e.Service)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// InvalidArgumentError names the argument rejected before any request was sent.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s %s: %s", ErrInvalidArgument, e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// UnsupportedOperationError marks an operation that exists but is not implemented.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedOperation, e.Op)
}

func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrUnsupportedOperation }

// MissingUnitError is returned when plotting a mnemonic whose info lacks "unit".
type MissingUnitError struct {
	Mnemonic string
}

func (e *MissingUnitError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingUnit, e.Mnemonic)
}

func (e *MissingUnitError) Is(target error) bool { return target == ErrMissingUnit }
