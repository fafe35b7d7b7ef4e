package main

import "filmatlas/internal/services"

// userFacingError shows the short user message while keeping the cause
// available to errors.Is.
type userFacingError struct {
	err error
}

func (e userFacingError) Error() string {
	return services.UserMessage(e.err)
}

func (e userFacingError) Unwrap() error {
	return e.err
}

func userError(err error) error {
	if err == nil {
		return nil
	}
	return userFacingError{err: err}
}
