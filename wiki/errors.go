package wiki

import "errors"

// Sentinel errors for wiki operations
var (
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidNamespace   = errors.New("invalid namespace")
	ErrTitleTaken         = errors.New("title already taken")
	ErrTitleCollision     = errors.New("redirection source collides with an article title")
	ErrEditConflict       = errors.New("edit conflict")
	ErrNoChange           = errors.New("no change")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidLimit       = errors.New("invalid limit")
)
