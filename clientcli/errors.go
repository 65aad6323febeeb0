package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrInvalidPool    = errors.New("pool name must be a single path segment")
)

// Errors for input validation.
var (
	ErrNoPaths        = errors.New("no paths provided")
	ErrEmptyPath      = errors.New("path is required")
	ErrNameAmbiguous  = errors.New("a remote name can only be given for a single file")
	ErrStdinNeedsName = errors.New("a remote name is required when reading standard input")
)
