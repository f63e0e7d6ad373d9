package runtime

import (
	"log/slog"

	"roomcast/contract"
	"roomcast/domain"
)

var _ contract.Reporter = (*LogReporter)(nil)

// LogReporter surfaces undelivered messages through the injected logger.
// Callers with a dedicated observability stack can provide their own
// Reporter instead.
type LogReporter struct {
	log *slog.Logger
}

func NewLogReporter(log *slog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) ReportUndelivered(msg domain.Message, reason error) {
	r.log.Warn("Message undelivered",
		"message_id", msg.ID.String(),
		"sender", string(msg.Sender),
		"target", string(msg.Target),
		"reason", reason)
}
