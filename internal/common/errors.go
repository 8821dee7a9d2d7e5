package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrMissingIdentifier is returned when a call is made without the user or
	// session identifier it needs. It is a caller bug and is reported before
	// any I/O happens.
	ErrMissingIdentifier = errors.New("missing identifier")

	// auth errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrReauthRequired      = errors.New("recent login required")
)
