// Package domain contains core concepts of the messaging system.
// This file defines Room entities: subscriber sets and message history.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"roomcast/errors"

	"github.com/samber/lo"
)

// Room groups subscribers sharing broadcast and direct messaging.
// Each Room carries its own lock so unrelated rooms stay independent
// under concurrency. History is append-only, insertion order.
type Room struct {
	id      RoomID
	deliver Deliverer
	log     *slog.Logger

	mu      sync.RWMutex
	members map[ParticipantID]Receiver
	history []Message
	closed  bool
}

func NewRoom(id RoomID, deliverer Deliverer, log *slog.Logger) *Room {
	return &Room{
		id:      id,
		deliver: deliverer,
		log:     log,
		members: make(map[ParticipantID]Receiver),
	}
}

func (r *Room) ID() RoomID {
	return r.id
}

// Attach registers a receiver under the participant id, overwriting any
// previous entry with the same id. Rejoining is therefore idempotent.
func (r *Room) Attach(id ParticipantID, receiver Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = receiver
	r.log.Info("Participant joined room", "participant", string(id), "room", string(r.id))
}

// Detach removes the participant's entry. No-op when absent.
func (r *Room) Detach(id ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	r.log.Info("Participant left room", "participant", string(id), "room", string(r.id))
}

// Broadcast appends the message to history and hands delivery to the
// Deliverer. The subscriber snapshot is taken under the lock; delivery
// runs after the lock is released so a slow receiver never blocks the
// room. The append happens regardless of the delivery outcome.
func (r *Room) Broadcast(ctx context.Context, msg Message) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.ErrRoomClosed
	}
	r.history = append(r.history, msg)
	snapshot := make(map[ParticipantID]Receiver, len(r.members))
	for id, receiver := range r.members {
		snapshot[id] = receiver
	}
	r.mu.Unlock()

	return r.deliver.Deliver(ctx, msg, snapshot)
}

// ActiveParticipants returns a point-in-time snapshot of subscriber ids,
// independent of later mutation.
func (r *Room) ActiveParticipants() []ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.members)
}

// History returns a copy of the full message log, oldest first. Concurrent
// readers never observe a partially appended message.
func (r *Room) History() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.history)
}

// Close detaches every subscriber and rejects further broadcasts with
// ErrRoomClosed. Called by the registry when the room is removed, so no
// session is left attached to a dead room.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.members = make(map[ParticipantID]Receiver)
	r.log.Info("Room closed", "room", string(r.id))
}

// Closed reports whether the room has been removed from its registry.
func (r *Room) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
