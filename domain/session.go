// Package domain contains core concepts of the messaging system.
// This file defines Session entities: the live binding between a
// participant identity and at most one Room.
package domain

import (
	"context"
	"log/slog"
	"sync"

	"roomcast/errors"
)

// Session tracks the current room membership of one participant and
// carries the Receiver through which deliveries reach the owning
// application. The session is owned by the caller, never by a Room.
type Session struct {
	participant ParticipantID
	receiver    Receiver
	log         *slog.Logger

	mu      sync.Mutex
	current *Room
}

func NewSession(id ParticipantID, receiver Receiver, log *slog.Logger) *Session {
	return &Session{participant: id, receiver: receiver, log: log}
}

func (s *Session) Participant() ParticipantID {
	return s.participant
}

// Room returns the current room, or nil when the session is not joined.
func (s *Session) Room() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Join attaches the session to the room, leaving any prior room first.
// A participant is therefore in at most one room system-wide. Joining
// the current room again is idempotent.
func (s *Session) Join(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == room {
		room.Attach(s.participant, s.receiver)
		return
	}
	if s.current != nil {
		s.current.Detach(s.participant)
	}
	room.Attach(s.participant, s.receiver)
	s.current = room
}

// Leave detaches from the current room. No-op when not in a room.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.Detach(s.participant)
	s.current = nil
}

// Send builds a broadcast message from this participant and hands it to
// the current room. Fails with ErrNotInRoom when the session has not
// joined; the caller may join and retry.
func (s *Session) Send(ctx context.Context, body string) error {
	room := s.Room()
	if room == nil {
		s.log.Warn("Send attempted without a room", "participant", string(s.participant))
		return errors.ErrNotInRoom
	}
	msg, err := NewBroadcast(s.participant, body)
	if err != nil {
		return err
	}
	return room.Broadcast(ctx, msg)
}

// SendDirect builds a message addressed to a single participant of the
// current room.
func (s *Session) SendDirect(ctx context.Context, target ParticipantID, body string) error {
	room := s.Room()
	if room == nil {
		s.log.Warn("Send attempted without a room", "participant", string(s.participant))
		return errors.ErrNotInRoom
	}
	msg, err := NewDirect(s.participant, target, body)
	if err != nil {
		return err
	}
	return room.Broadcast(ctx, msg)
}
