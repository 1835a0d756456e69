package email

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/metrics"
)

const defaultSendTimeout = 30 * time.Second

// AsyncNotifier hands each message to its own goroutine and returns without
// waiting for delivery. Failures are logged and counted, never retried. It is
// the notifier used when the job queue is disabled.
type AsyncNotifier struct {
	sender  Sender
	timeout time.Duration
	logger  zerolog.Logger
	redact  bool
	wg      sync.WaitGroup
}

func NewAsyncNotifier(sender Sender, logger zerolog.Logger, redactRecipients bool) *AsyncNotifier {
	return &AsyncNotifier{
		sender:  sender,
		timeout: defaultSendTimeout,
		logger:  logger.With().Str("component", "notifier").Logger(),
		redact:  redactRecipients,
	}
}

// Notify validates msg and schedules delivery. Only validation failures are
// returned to the caller.
func (n *AsyncNotifier) Notify(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	// Delivery outlives the request that triggered it.
	sendCtx := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(sendCtx, n.timeout)
		defer cancel()

		err := n.sender.Send(ctx, msg)
		metrics.Notifications.WithLabelValues("async", metrics.Result(err)).Inc()
		if err != nil {
			n.logger.Error().Err(err).
				Str("to", n.recipient(msg.To)).
				Str("subject", msg.Subject).
				Msg("notification delivery failed")
			return
		}
		n.logger.Info().
			Str("to", n.recipient(msg.To)).
			Str("subject", msg.Subject).
			Msg("notification delivered")
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (n *AsyncNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *AsyncNotifier) recipient(addr string) string {
	if n.redact {
		return redact(addr)
	}
	return addr
}
