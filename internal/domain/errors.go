package domain

import "errors"

var (
	// ErrPatientNotFound signals a missing patient record.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrInvalidPatient signals a patient record that failed validation.
	ErrInvalidPatient = errors.New("invalid patient")
	// ErrInvalidCursor signals a pagination cursor that cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrStrategyUnavailable signals a single query strategy failure.
	// It never surfaces past the strategy boundary; callers see an empty page.
	ErrStrategyUnavailable = errors.New("query strategy unavailable")
	// ErrAllStrategiesFailed signals that every strategy of a search failed.
	// Surfaced as an advisory degraded flag, not as a session-terminating error.
	ErrAllStrategiesFailed = errors.New("all query strategies failed")
)
