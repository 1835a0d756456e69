package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/metrics"
)

// Inserter is the part of the River client the queues need.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

type EmailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// SendEmailArgs carries one outbound message.
type SendEmailArgs struct {
	To          string            `json:"to"`
	Subject     string            `json:"subject"`
	Text        string            `json:"text,omitempty"`
	HTML        string            `json:"html,omitempty"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
}

func (SendEmailArgs) Kind() string { return JobKindSendEmail }

func newSendEmailArgs(msg email.Message) SendEmailArgs {
	args := SendEmailArgs{To: msg.To, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML}
	for _, a := range msg.Attachments {
		args.Attachments = append(args.Attachments, EmailAttachment(a))
	}
	return args
}

func (a SendEmailArgs) message() email.Message {
	msg := email.Message{To: a.To, Subject: a.Subject, Text: a.Text, HTML: a.HTML}
	for _, att := range a.Attachments {
		msg.Attachments = append(msg.Attachments, email.Attachment(att))
	}
	return msg
}

type SendEmailWorker struct {
	river.WorkerDefaults[SendEmailArgs]
	Sender email.Sender
	Logger zerolog.Logger
}

func (w SendEmailWorker) Work(ctx context.Context, job *river.Job[SendEmailArgs]) error {
	if job == nil {
		return fmt.Errorf("send email job missing")
	}
	if w.Sender == nil {
		return fmt.Errorf("send email worker has no sender")
	}

	msg := job.Args.message()
	if err := msg.Validate(); err != nil {
		// A malformed message never becomes valid.
		return river.JobCancel(err)
	}

	err := w.Sender.Send(ctx, msg)
	metrics.Notifications.WithLabelValues("queue", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	w.Logger.Info().
		Int64("job_id", job.ID).
		Int("attempt", job.Attempt).
		Str("subject", msg.Subject).
		Msg("queued notification delivered")
	return nil
}

// EmailQueue is a Notifier that hands messages to the job queue.
type EmailQueue struct {
	client Inserter
	policy *RetryPolicy
}

func NewEmailQueue(client Inserter, policy *RetryPolicy) *EmailQueue {
	return &EmailQueue{client: client, policy: policy}
}

// Notify validates msg and enqueues delivery.
func (q *EmailQueue) Notify(ctx context.Context, msg email.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if _, err := q.client.Insert(ctx, newSendEmailArgs(msg), q.policy.InsertOpts(JobKindSendEmail, QueueEmail)); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}
