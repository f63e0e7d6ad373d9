// Package runtime wires rooms, delivery, and reporting together.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"log/slog"
	"sync"

	"roomcast/contract"
	"roomcast/domain"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the process-wide table of active rooms. Rooms are created
// lazily on first reference and removed explicitly. All methods are safe
// for concurrent use by many sessions.
type Registry struct {
	log     *slog.Logger
	deliver domain.Deliverer

	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewRegistry(log *slog.Logger, deliverer domain.Deliverer) *Registry {
	return &Registry{
		log:     log,
		deliver: deliverer,
		rooms:   make(map[domain.RoomID]*domain.Room),
	}
}

// CreateOrGet returns the room for id, constructing it when absent.
// Insert-if-absent is atomic: two concurrent calls for the same id
// always observe the same *Room instance.
func (r *Registry) CreateOrGet(id domain.RoomID) *domain.Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another session may have created the room between the two locks.
	if room, ok := r.rooms[id]; ok {
		return room
	}
	room = domain.NewRoom(id, r.deliver, r.log)
	r.rooms[id] = room
	r.log.Info("Created room", "room", string(id))
	return room
}

// Get returns the room for id, or nil when absent. Never creates.
func (r *Registry) Get(id domain.RoomID) *domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

// Remove drops the room from the table and closes it, force-detaching
// every remaining subscriber. Sessions still holding the room observe
// ErrRoomClosed on their next send instead of writing into a dead room.
// No-op when the id is unknown.
func (r *Registry) Remove(id domain.RoomID) {
	r.mu.Lock()
	room, ok := r.rooms[id]
	if ok {
		delete(r.rooms, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	room.Close()
	r.log.Info("Removed room", "room", string(id))
}
