// Package notifxqueue provides a notifx provider that defers email delivery
// to a jobx queue instead of calling the upstream provider inline. Jobs are
// retried with the queue's backoff when the upstream send fails, so a
// transient SES outage does not drop welcome emails on the floor.
package notifxqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roastery-dev/roastery/pkg/jobx"
	"github.com/roastery-dev/roastery/pkg/logx"
	"github.com/roastery-dev/roastery/pkg/notifx"
)

// JobTypeSendEmail identifies email delivery jobs on the queue.
const JobTypeSendEmail = "notifx:send_email"

// QueueProvider implements notifx.EmailSender by enqueuing the message.
type QueueProvider struct {
	enqueuer jobx.JobEnqueuer
	queue    string
}

// NewQueueProvider creates a provider that publishes emails to the given queue.
func NewQueueProvider(enqueuer jobx.JobEnqueuer, queue string) *QueueProvider {
	if queue == "" {
		queue = "notifications"
	}
	return &QueueProvider{
		enqueuer: enqueuer,
		queue:    queue,
	}
}

// SendEmail enqueues the message for asynchronous delivery. The message is
// fully rendered at this point, so the worker side needs no template state.
func (p *QueueProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return queueErrors.NewWithCause(ErrEnqueueFailed, err)
	}

	jobID, err := p.enqueuer.Enqueue(ctx, jobx.Job{
		Type:    JobTypeSendEmail,
		Queue:   p.queue,
		Payload: payload,
	})
	if err != nil {
		return queueErrors.NewWithCause(ErrEnqueueFailed, err)
	}

	logx.WithFields(logx.Fields{
		"job_id":  jobID,
		"subject": msg.Subject,
	}).Debugf("notifxqueue: email enqueued")

	return nil
}

// RegisterHandler wires the delivery handler on a jobx client. The delegate
// is the provider that actually talks to the mail service.
func RegisterHandler(client *jobx.Client, delegate notifx.EmailSender) {
	client.Register(JobTypeSendEmail, func(ctx context.Context, job *jobx.JobInfo) error {
		var msg notifx.EmailMessage
		if err := json.Unmarshal(job.Payload, &msg); err != nil {
			// A payload that never unmarshals will never succeed on retry.
			logx.WithError(err).Errorf("notifxqueue: dropping malformed email job %s", job.ID)
			return nil
		}

		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		return delegate.SendEmail(sendCtx, msg)
	})
}

var _ notifx.EmailSender = (*QueueProvider)(nil)
