package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"roomcast/domain"
	"roomcast/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type nopDeliverer struct{}

func (nopDeliverer) Deliver(context.Context, domain.Message, map[domain.ParticipantID]domain.Receiver) error {
	return nil
}

type nopReceiver struct{}

func (nopReceiver) Receive(context.Context, domain.Message) error { return nil }

func TestRegistry_CreateOrGet_Idempotent(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, nopDeliverer{})

	first := registry.CreateOrGet("R1")
	second := registry.CreateOrGet("R1")

	req.NotNil(first)
	req.Same(first, second)
}

func TestRegistry_Get_AbsentReturnsNil(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, nopDeliverer{})

	req.Nil(registry.Get("nowhere"))

	// Get never creates
	req.Nil(registry.Get("nowhere"))
}

func TestRegistry_Remove_ClosesRoomAndDetachesSubscribers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, nopDeliverer{})

	// Given a populated room
	room := registry.CreateOrGet("R1")
	room.Attach("alice", nopReceiver{})

	// When the room is removed
	registry.Remove("R1")

	// Then it is gone from the table, closed, and emptied
	req.Nil(registry.Get("R1"))
	req.True(room.Closed())
	req.Empty(room.ActiveParticipants())

	msg, err := domain.NewBroadcast("alice", "anyone there")
	req.NoError(err)
	req.ErrorIs(room.Broadcast(context.Background(), msg), errors.ErrRoomClosed)
}

func TestRegistry_Remove_AbsentIsNoOp(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, nopDeliverer{})

	registry.Remove("nowhere")

	req.Nil(registry.Get("nowhere"))
}

// Two concurrent CreateOrGet calls for the same id must observe the same
// Room instance, never two distinct rooms.
func TestRegistry_CreateOrGet_ConcurrentSameInstance(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, nopDeliverer{})

	const callers = 32
	results := make(chan *domain.Room, callers)

	var start sync.WaitGroup
	start.Add(1)
	var done sync.WaitGroup
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			results <- registry.CreateOrGet("R2")
		}()
	}
	start.Done()
	done.Wait()
	close(results)

	reference := registry.Get("R2")
	req.NotNil(reference)
	for room := range results {
		req.Same(reference, room)
	}
}
