package notifxqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/roastery-dev/roastery/pkg/jobx"
	"github.com/roastery-dev/roastery/pkg/notifx"
)

type fakeEnqueuer struct {
	jobs []jobx.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.jobs = append(f.jobs, job)
	return "job-1", nil
}

func (f *fakeEnqueuer) EnqueueDelayed(ctx context.Context, job jobx.Job, _ time.Duration) (string, error) {
	return f.Enqueue(ctx, job)
}

func TestSendEmailEnqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	provider := NewQueueProvider(enq, "notifications")

	msg := notifx.EmailMessage{
		From:     "no-reply@roastery.dev",
		To:       []string{"jane@example.com"},
		Subject:  "Welcome to Roastery",
		HTMLBody: "<p>hi</p>",
	}

	if err := provider.SendEmail(context.Background(), msg); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if len(enq.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(enq.jobs))
	}

	job := enq.jobs[0]
	if job.Type != JobTypeSendEmail {
		t.Errorf("job type = %q", job.Type)
	}
	if job.Queue != "notifications" {
		t.Errorf("queue = %q", job.Queue)
	}

	var decoded notifx.EmailMessage
	if err := json.Unmarshal(job.Payload, &decoded); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if decoded.Subject != msg.Subject || decoded.To[0] != msg.To[0] {
		t.Errorf("payload round-trip mismatch: %+v", decoded)
	}
}

func TestSendEmailEnqueueFailure(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	provider := NewQueueProvider(enq, "")

	err := provider.SendEmail(context.Background(), notifx.EmailMessage{
		To:      []string{"jane@example.com"},
		Subject: "x",
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultQueueName(t *testing.T) {
	enq := &fakeEnqueuer{}
	provider := NewQueueProvider(enq, "")

	if err := provider.SendEmail(context.Background(), notifx.EmailMessage{
		To:      []string{"jane@example.com"},
		Subject: "x",
	}); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if enq.jobs[0].Queue != "notifications" {
		t.Errorf("queue = %q", enq.jobs[0].Queue)
	}
}
