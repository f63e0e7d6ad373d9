// Package services exposes the messaging facade consumed by transport
// layers. It composes the registry, sessions, and delivery without owning
// any domain rule itself.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"roomcast/contract"
	"roomcast/domain"
	"roomcast/errors"
	"roomcast/internal"
	"roomcast/moderation"
	"roomcast/runtime"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
)

// systemSender signs presence announcements.
const systemSender domain.ParticipantID = "system"

// Options are the runtime knobs of the messaging core.
type Options struct {
	// EchoToSender keeps the sender in broadcast fan-out. Defaults to
	// true, mirroring the behavior callers historically relied on.
	EchoToSender bool
	// DeliveryTimeout bounds each Receive call. Zero disables the bound.
	DeliveryTimeout time.Duration
	// MaxBodyLength rejects oversized bodies before broadcast. Zero
	// disables the check.
	MaxBodyLength int
	// AnnouncePresence broadcasts a system notice on join and leave.
	AnnouncePresence bool
	// CensoredWords enables body masking when non-empty.
	CensoredWords []string
	MaskCharacter rune
}

// RoomService is the API surface tying registry, sessions, and delivery
// together. One instance per process; all methods are safe for concurrent
// use.
type RoomService struct {
	log      *slog.Logger
	registry contract.IRegistry
	filter   *moderation.Filter
	opts     Options

	mu       sync.RWMutex
	sessions map[domain.ParticipantID]*domain.Session
}

// New wires a service from explicit options. The registry instance is
// constructed here, once, and shared by handle; nothing reaches it through
// a hidden global lookup.
func New(log *slog.Logger, opts Options) (*RoomService, error) {
	broadcaster := runtime.NewBroadcaster(log, runtime.NewLogReporter(log), opts.EchoToSender, opts.DeliveryTimeout)

	var filter *moderation.Filter
	if len(opts.CensoredWords) > 0 {
		var err error
		filter, err = moderation.NewFilter(opts.CensoredWords, opts.MaskCharacter, log)
		if err != nil {
			return nil, fmt.Errorf("moderation filter: %w", err)
		}
	}

	return &RoomService{
		log:      log,
		registry: runtime.NewRegistry(log, broadcaster),
		filter:   filter,
		opts:     opts,
		sessions: make(map[domain.ParticipantID]*domain.Session),
	}, nil
}

// NewFromEnv builds the service from environment variables, constructing
// the logger from the configured level.
func NewFromEnv() (*RoomService, error) {
	config, err := internal.Load()
	if err != nil {
		return nil, err
	}
	mask, err := internal.MaskRune(config.MaskCharacter)
	if err != nil {
		return nil, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	return New(log, Options{
		EchoToSender:     config.EchoToSender,
		DeliveryTimeout:  config.DeliveryTimeout,
		MaxBodyLength:    config.MaxBodyLength,
		AnnouncePresence: config.AnnouncePresence,
		CensoredWords:    config.CensoredWords,
		MaskCharacter:    mask,
	})
}

// CreateParticipant registers a new session for the id and binds the
// receiver through which deliveries reach the caller. An empty id gets a
// generated one. Participant ids are unique service-wide.
func (s *RoomService) CreateParticipant(id domain.ParticipantID, receiver domain.Receiver) (*domain.Session, error) {
	if id == "" {
		id = domain.ParticipantID(uuid.NewString())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrParticipantExists, id)
	}
	session := domain.NewSession(id, receiver, s.log)
	s.sessions[id] = session
	s.log.Info("Created participant", "participant", string(id))
	return session, nil
}

// Participant returns the session for id, or nil when unknown.
func (s *RoomService) Participant(id domain.ParticipantID) *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// RemoveParticipant leaves any current room and forgets the session.
// No-op when the id is unknown.
func (s *RoomService) RemoveParticipant(id domain.ParticipantID) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	s.LeaveRoom(session)
	s.log.Info("Removed participant", "participant", string(id))
}

// JoinOrCreateRoom attaches the session to the room, creating the room on
// first reference. Always succeeds.
func (s *RoomService) JoinOrCreateRoom(session *domain.Session, roomID domain.RoomID) *domain.Room {
	room := s.registry.CreateOrGet(roomID)
	session.Join(room)
	s.announce(room, fmt.Sprintf("%s joined the room", session.Participant()))
	return room
}

// LeaveRoom detaches the session from its current room, if any.
func (s *RoomService) LeaveRoom(session *domain.Session) {
	room := session.Room()
	session.Leave()
	if room != nil {
		s.announce(room, fmt.Sprintf("%s left the room", session.Participant()))
	}
}

// Send broadcasts body to the session's current room.
func (s *RoomService) Send(ctx context.Context, session *domain.Session, body string) error {
	body, err := s.prepareBody(body)
	if err != nil {
		return err
	}
	return session.Send(ctx, body)
}

// SendDirect addresses body to a single participant of the session's
// current room. An absent target is reported, not fatal: the message is
// already part of the room history when ErrRecipientNotFound comes back.
func (s *RoomService) SendDirect(ctx context.Context, session *domain.Session, target domain.ParticipantID, body string) error {
	body, err := s.prepareBody(body)
	if err != nil {
		return err
	}
	return session.SendDirect(ctx, target, body)
}

// ListActive snapshots the participant ids of a room. Unknown rooms yield
// an empty result, never an error.
func (s *RoomService) ListActive(roomID domain.RoomID) []domain.ParticipantID {
	room := s.registry.Get(roomID)
	if room == nil {
		return nil
	}
	return room.ActiveParticipants()
}

// History copies the message log of a room, oldest first. Unknown rooms
// yield an empty result, never an error.
func (s *RoomService) History(roomID domain.RoomID) []domain.Message {
	room := s.registry.Get(roomID)
	if room == nil {
		return nil
	}
	return room.History()
}

// RemoveRoom administratively removes a room, force-detaching any
// remaining subscribers.
func (s *RoomService) RemoveRoom(roomID domain.RoomID) {
	s.registry.Remove(roomID)
}

// prepareBody applies the size bound and the moderation filter.
func (s *RoomService) prepareBody(body string) (string, error) {
	if s.opts.MaxBodyLength > 0 && utf8.RuneCountInString(body) > s.opts.MaxBodyLength {
		return "", fmt.Errorf("%w: body exceeds %d characters", errors.ErrInvalidMessage, s.opts.MaxBodyLength)
	}
	if s.filter != nil {
		masked, words := s.filter.Mask(body)
		if len(words) > 0 {
			s.log.Debug("Masked censored words", "count", len(words))
		}
		body = masked
	}
	return body, nil
}

func (s *RoomService) announce(room *domain.Room, text string) {
	if !s.opts.AnnouncePresence {
		return
	}
	msg, err := domain.NewBroadcast(systemSender, text)
	if err != nil {
		s.log.Error("Building presence notice failed", "error", err)
		return
	}
	if err := room.Broadcast(context.Background(), msg); err != nil {
		s.log.Warn("Presence notice not delivered", "room", string(room.ID()), "error", err)
	}
}
