package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"roomcast/domain"
	"roomcast/errors"
	"roomcast/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestBroadcaster_Broadcast_DeliversToAllIncludingSender(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	alice := mocks.NewMockReceiver(ctrl)
	bob := mocks.NewMockReceiver(ctrl)
	charlie := mocks.NewMockReceiver(ctrl)
	reporter := mocks.NewMockReporter(ctrl)

	broadcaster := NewBroadcaster(log, reporter, true, time.Second)

	msg, err := domain.NewBroadcast("alice", "hello everyone")
	req.NoError(err)

	// Given every subscriber accepts the delivery, sender included
	alice.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)
	bob.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)
	charlie.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)

	err = broadcaster.Deliver(context.Background(), msg, map[domain.ParticipantID]domain.Receiver{
		"alice": alice, "bob": bob, "charlie": charlie,
	})

	req.NoError(err)
}

func TestBroadcaster_Broadcast_ExcludesSenderWhenEchoDisabled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	alice := mocks.NewMockReceiver(ctrl)
	bob := mocks.NewMockReceiver(ctrl)
	reporter := mocks.NewMockReporter(ctrl)

	broadcaster := NewBroadcaster(log, reporter, false, time.Second)

	msg, err := domain.NewBroadcast("alice", "hello")
	req.NoError(err)

	// Then only bob is served; no expectation is set on alice
	bob.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)

	err = broadcaster.Deliver(context.Background(), msg, map[domain.ParticipantID]domain.Receiver{
		"alice": alice, "bob": bob,
	})

	req.NoError(err)
}

func TestBroadcaster_Direct_DeliversOnlyToTarget(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	alice := mocks.NewMockReceiver(ctrl)
	bob := mocks.NewMockReceiver(ctrl)
	tina := mocks.NewMockReceiver(ctrl)
	reporter := mocks.NewMockReporter(ctrl)

	broadcaster := NewBroadcaster(log, reporter, true, time.Second)

	msg, err := domain.NewDirect("alice", "tina", "psst")
	req.NoError(err)

	// Then only the target is served, never alice or bob
	tina.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)

	err = broadcaster.Deliver(context.Background(), msg, map[domain.ParticipantID]domain.Receiver{
		"alice": alice, "bob": bob, "tina": tina,
	})

	req.NoError(err)
}

func TestBroadcaster_Direct_MissingTargetIsReported(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	alice := mocks.NewMockReceiver(ctrl)
	reporter := mocks.NewMockReporter(ctrl)

	broadcaster := NewBroadcaster(log, reporter, true, time.Second)

	msg, err := domain.NewDirect("alice", "ghost", "anyone")
	req.NoError(err)

	// Then the reporter is notified and nobody receives anything
	reporter.EXPECT().ReportUndelivered(msg, errors.ErrRecipientNotFound).Times(1)

	err = broadcaster.Deliver(context.Background(), msg, map[domain.ParticipantID]domain.Receiver{
		"alice": alice,
	})

	req.ErrorIs(err, errors.ErrRecipientNotFound)
}

func TestBroadcaster_PanickingReceiverDoesNotAffectOthers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	faulty := mocks.NewMockReceiver(ctrl)
	healthy := mocks.NewMockReceiver(ctrl)
	reporter := mocks.NewMockReporter(ctrl)

	broadcaster := NewBroadcaster(log, reporter, true, time.Second)

	msg, err := domain.NewBroadcast("alice", "hello")
	req.NoError(err)

	faulty.EXPECT().Receive(gomock.Any(), msg).DoAndReturn(
		func(ctx context.Context, m domain.Message) error {
			panic("receiver blew up")
		}).Times(1)
	healthy.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)

	err = broadcaster.Deliver(context.Background(), msg, map[domain.ParticipantID]domain.Receiver{
		"faulty": faulty, "healthy": healthy,
	})

	req.NoError(err)
}

func TestBroadcaster_SlowReceiverHitsDeadline(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	slow := mocks.NewMockReceiver(ctrl)
	prompt := mocks.NewMockReceiver(ctrl)
	reporter := mocks.NewMockReporter(ctrl)

	broadcaster := NewBroadcaster(log, reporter, true, 20*time.Millisecond)

	msg, err := domain.NewBroadcast("alice", "hello")
	req.NoError(err)

	slow.EXPECT().Receive(gomock.Any(), msg).DoAndReturn(
		func(ctx context.Context, m domain.Message) error {
			<-ctx.Done() // Blocked until the delivery deadline fires
			return ctx.Err()
		}).Times(1)
	prompt.EXPECT().Receive(gomock.Any(), msg).Return(nil).Times(1)

	start := time.Now()
	err = broadcaster.Deliver(context.Background(), msg, map[domain.ParticipantID]domain.Receiver{
		"slow": slow, "prompt": prompt,
	})

	req.NoError(err)
	req.Less(time.Since(start), time.Second)
}
