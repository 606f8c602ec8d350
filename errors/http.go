package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates domain errors to user-facing status codes at
// the transport boundary. Masked access (a requester who is not a
// participant) surfaces as not-found, never as forbidden, so conversation
// existence is not leaked. Anything unrecognized is treated as a transient
// server-side failure, safe for the caller to retry.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrContentTooLong),
		errors.Is(err, ErrInvalidParticipantCount),
		errors.Is(err, ErrInvalidConversationType),
		errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrConversationNotFound),
		errors.Is(err, ErrAvatarNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUsernameExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
