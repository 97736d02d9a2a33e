package utils

import "errors"

// User-facing handler errors; anything more specific stays in the logs.
var (
	ErrInvalidFile  = errors.New("invalid file")
	ErrUploadFailed = errors.New("file upload failed")
	ErrItemNotFound = errors.New("item not found")
)
