package vocab

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidValue      = errors.New("invalid value")
	ErrInvalidObjectType = errors.New("invalid object type")
)
