package http

import "errors"

// ErrMissingField is returned when a required form field is absent.
var ErrMissingField = errors.New("missing form field")

// ErrBadMultipart is returned when an upload body is not readable multipart data.
var ErrBadMultipart = errors.New("malformed multipart body")
