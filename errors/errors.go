package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrResponderNotFound  = fmt.Errorf("responder not found")
	ErrAuthRequired       = fmt.Errorf("authentication required")
	ErrNotAllowed         = fmt.Errorf("operation not allowed")
	ErrSequenceConflict   = fmt.Errorf("sequence number conflict")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
)
