package errors

import "fmt"

var (
	ErrNotInRoom         = fmt.Errorf("participant is not in a room")
	ErrRecipientNotFound = fmt.Errorf("recipient not found in room")
	ErrRoomClosed        = fmt.Errorf("room has been removed")
	ErrParticipantExists = fmt.Errorf("participant id already registered")
	ErrInvalidMessage    = fmt.Errorf("invalid message")
	ErrReceiverPanic     = fmt.Errorf("receiver panicked during delivery")
	ErrEmptyWords        = fmt.Errorf("no censored words have been provided")
)
