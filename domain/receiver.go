//go:generate go run go.uber.org/mock/mockgen -source=receiver.go -destination=../mocks/mock_receiver.go -package=mocks
package domain

import "context"

// Receiver is the capability a subscriber must provide to get messages.
// Any type with a Receive method qualifies; no hierarchy is required.
// Receive may be called concurrently with any other operation and must
// honor ctx cancellation if it blocks.
type Receiver interface {
	Receive(ctx context.Context, msg Message) error
}

// Deliverer is the delivery policy applied after a message has been
// appended to a room's history. Given the message and a snapshot of the
// room's subscribers, it decides the recipients (all vs. one) and performs
// delivery. Implementations must tolerate missing direct targets and must
// not let one failing recipient affect the others.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message, subscribers map[ParticipantID]Receiver) error
}
