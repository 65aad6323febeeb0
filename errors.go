package duplo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a file does not exist in a pool
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrQuotaExceeded is returned when a pool's byte budget cannot hold the payload
	ErrQuotaExceeded = errors.New("payload too large")
	// ErrTooManyFiles is returned when a pool's file-count budget is exhausted.
	// It matches ErrQuotaExceeded with errors.Is.
	ErrTooManyFiles = fmt.Errorf("too many files: %w", ErrQuotaExceeded)
	// ErrConflict is returned when no free filename could be found
	ErrConflict = errors.New("conflict")
	// ErrUploadAborted is returned when the inbound stream fails before it ends
	ErrUploadAborted = errors.New("upload aborted")
	// ErrReaperFatal is returned by Reaper.Run when the pool directory cannot be listed
	ErrReaperFatal = errors.New("reaper stopped")
)
