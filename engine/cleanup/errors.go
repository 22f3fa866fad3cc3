package cleanup

import "errors"

var (
	ErrLocked              = errors.New("another cleanup is running against this userlib")
	ErrUserCancelled       = errors.New("cleanup cancelled by user")
	ErrInvalidConfirmation = errors.New("invalid confirmation, cleanup cancelled for safety")
	ErrCandidatesFound     = errors.New("redundant libraries found")
)
