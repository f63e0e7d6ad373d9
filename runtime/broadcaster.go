package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"roomcast/contract"
	"roomcast/domain"
	"roomcast/errors"
)

// Ensure *Broadcaster implements the domain.Deliverer interface at compile time.
var _ domain.Deliverer = (*Broadcaster)(nil)

// Broadcaster is the delivery algorithm for room messages.
//
// It provides best-effort fan-out with no ordering guarantee between
// recipients. Each recipient is served on its own goroutine under a
// delivery deadline, so one slow, failing, or panicking receiver never
// blocks or fails delivery to the others.
//
// Whether a broadcast message is echoed back to its sender is a
// configuration knob; the default keeps the sender in the fan-out.
//
// Broadcaster is safe for concurrent use by multiple goroutines.
type Broadcaster struct {
	log          *slog.Logger
	reporter     contract.Reporter
	echoToSender bool
	timeout      time.Duration
}

func NewBroadcaster(log *slog.Logger, reporter contract.Reporter, echoToSender bool, timeout time.Duration) *Broadcaster {
	return &Broadcaster{
		log:          log,
		reporter:     reporter,
		echoToSender: echoToSender,
		timeout:      timeout,
	}
}

// Deliver decides the recipients of msg among the subscriber snapshot and
// performs delivery. A direct message whose target is absent is reported
// through the Reporter and surfaced as ErrRecipientNotFound; the caller's
// history append has already happened and stands.
func (b *Broadcaster) Deliver(ctx context.Context, msg domain.Message, subscribers map[domain.ParticipantID]domain.Receiver) error {
	switch msg.Mode {
	case domain.ModeDirect:
		receiver, ok := subscribers[msg.Target]
		if !ok {
			b.log.Warn("Direct message target not found",
				"target", string(msg.Target), "sender", string(msg.Sender))
			b.reporter.ReportUndelivered(msg, errors.ErrRecipientNotFound)
			return fmt.Errorf("%w: %s", errors.ErrRecipientNotFound, msg.Target)
		}
		b.fanout(ctx, msg, map[domain.ParticipantID]domain.Receiver{msg.Target: receiver})
	default:
		recipients := subscribers
		if !b.echoToSender {
			recipients = make(map[domain.ParticipantID]domain.Receiver, len(subscribers))
			for id, receiver := range subscribers {
				if id == msg.Sender {
					continue
				}
				recipients[id] = receiver
			}
		}
		b.fanout(ctx, msg, recipients)
	}
	return nil
}

// fanout serves every recipient concurrently and waits for completion.
func (b *Broadcaster) fanout(ctx context.Context, msg domain.Message, recipients map[domain.ParticipantID]domain.Receiver) {
	var wg sync.WaitGroup
	for id, receiver := range recipients {
		wg.Add(1)
		go func(id domain.ParticipantID, receiver domain.Receiver) {
			defer wg.Done()
			b.deliverOne(ctx, id, receiver, msg)
		}(id, receiver)
	}
	wg.Wait()
}

// deliverOne runs a single Receive call under a deadline, recovering from
// panics so a misbehaving receiver cannot take the fan-out down.
func (b *Broadcaster) deliverOne(ctx context.Context, id domain.ParticipantID, receiver domain.Receiver, msg domain.Message) {
	deliveryCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		deliveryCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errors.ErrReceiverPanic, r)
			}
		}()
		return receiver.Receive(deliveryCtx, msg)
	}()

	if err != nil {
		b.log.Warn("Delivery to participant failed",
			"participant", string(id), "message_id", msg.ID.String(), "error", err)
	}
}
