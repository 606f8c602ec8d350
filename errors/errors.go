package errors

import "fmt"

var (
	ErrUserNotFound            = fmt.Errorf("user does not exist")
	ErrConversationNotFound    = fmt.Errorf("conversation not found")
	ErrNotParticipant          = fmt.Errorf("user is not part of this conversation")
	ErrInvalidParticipantCount = fmt.Errorf("participant count does not match the conversation type")
	ErrInvalidConversationType = fmt.Errorf("unknown conversation type")
	ErrEmptyContent            = fmt.Errorf("message content is required")
	ErrContentTooLong          = fmt.Errorf("message content exceeds the maximum length")
	ErrUsernameExists          = fmt.Errorf("username already exists")
	ErrAvatarNotFound          = fmt.Errorf("user has no avatar")
	ErrInvalidCredentials      = fmt.Errorf("invalid credentials")
	ErrInvalidPassword         = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration         = fmt.Errorf("token generation failed")
	ErrWorkerPanic             = fmt.Errorf("worker panic")
)
