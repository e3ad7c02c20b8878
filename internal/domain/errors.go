package domain

import "errors"

// Sentinel errors for the auth and menu flows. Services wrap these with
// context; handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrEmailExists    = errors.New("user with this email already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrCodeExpired    = errors.New("verification code has expired")
	ErrDeliveryFailed = errors.New("failed to send verification email")
)
