package app

import "errors"

// Error taxonomy for the whole request surface. Handlers map these to
// HTTP statuses; everything unmatched is a 500.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUpload       = errors.New("upload error")
	ErrClassifier   = errors.New("classifier error")
	ErrUnsupported  = errors.New("operation not supported by identity provider")
)
