package apperr

import (
	"errors"
	"net/http"
)

// Error is an operational error with a stable machine-readable code and the
// HTTP status it translates to at the boundary.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with an explicit status and code
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Validation creates a 400 VALIDATION_ERROR with the given message
func Validation(message string) *Error {
	return New(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

var (
	ErrAuthenticationRequired = New(http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Access denied. No token provided.")
	ErrInvalidToken           = New(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token.")
	ErrTokenExpired           = New(http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired.")
	ErrAccountDeactivated     = New(http.StatusUnauthorized, "ACCOUNT_DEACTIVATED", "Account has been deactivated.")
	ErrInvalidCredentials     = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")
	ErrUnauthorized           = New(http.StatusForbidden, "UNAUTHORIZED", "Not authorized to modify this resource.")
	ErrRateLimited            = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")

	ErrEmailExists    = New(http.StatusConflict, "EMAIL_ALREADY_EXISTS", "Email already registered.")
	ErrUsernameExists = New(http.StatusConflict, "USERNAME_ALREADY_EXISTS", "Username already taken.")

	ErrCannotFollowSelf   = New(http.StatusBadRequest, "CANNOT_FOLLOW_SELF", "Cannot follow yourself.")
	ErrCannotUnfollowSelf = New(http.StatusBadRequest, "CANNOT_UNFOLLOW_SELF", "Cannot unfollow yourself.")
	ErrAlreadyFollowing   = New(http.StatusBadRequest, "ALREADY_FOLLOWING", "Already following this user.")
	ErrNotFollowing       = New(http.StatusBadRequest, "NOT_FOLLOWING", "Not following this user.")

	ErrUserNotFound   = New(http.StatusNotFound, "USER_NOT_FOUND", "User not found.")
	ErrRecipeNotFound = New(http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found.")

	ErrInvalidInstructionSequence = New(http.StatusBadRequest, "INVALID_INSTRUCTION_SEQUENCE",
		"Instruction steps must be unique and consecutive starting from 1.")
)

// From extracts an *Error from an error chain
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
