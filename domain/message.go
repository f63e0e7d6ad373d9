// Package domain contains core concepts of the messaging system.
// This file defines Message records and their construction rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"fmt"
	"time"

	"roomcast/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type RoomID string

type ParticipantID string

// DeliveryMode selects the recipients of a message within a room.
type DeliveryMode string

const (
	ModeBroadcast DeliveryMode = "broadcast"
	ModeDirect    DeliveryMode = "direct"
)

var validate = validator.New()

// Message represents an immutable messaging event.
// Target is set if and only if Mode is direct.
type Message struct {
	ID        uuid.UUID
	Sender    ParticipantID `validate:"required"`
	Body      string        `validate:"required"`
	CreatedAt time.Time
	Mode      DeliveryMode  `validate:"oneof=broadcast direct"`
	Target    ParticipantID `validate:"required_if=Mode direct,excluded_unless=Mode direct"`
}

// NewBroadcast builds a room-wide message stamped at creation time.
func NewBroadcast(sender ParticipantID, body string) (Message, error) {
	return newMessage(Message{
		ID:        uuid.New(),
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		Mode:      ModeBroadcast,
	})
}

// NewDirect builds a message addressed to a single participant of the room.
func NewDirect(sender, target ParticipantID, body string) (Message, error) {
	return newMessage(Message{
		ID:        uuid.New(),
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		Mode:      ModeDirect,
		Target:    target,
	})
}

func newMessage(m Message) (Message, error) {
	if err := validate.Struct(m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", errors.ErrInvalidMessage, err)
	}
	return m, nil
}
