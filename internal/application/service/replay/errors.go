package replay

import "errors"

var (
	ErrValidation  = errors.New("invalid replay parameters")
	ErrConflict    = errors.New("replay session already active")
	ErrNotActive   = errors.New("replay session is not active")
	ErrPersistence = errors.New("replay persistence failed")
)
