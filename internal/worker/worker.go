package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcampaign/backend/pkg/queue"
)

// Sender delivers one email message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMarker records delivery outcomes on email log rows.
type LogMarker interface {
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// JobSource supplies queued jobs and accepts them back for retry.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EmailProcessor drains the email queue: deliver via SMTP, update the email
// log, retry through the queue on failure.
type EmailProcessor struct {
	logs   LogMarker
	sender Sender
	queue  JobSource
	logger *zap.Logger
}

// NewEmailProcessor creates an email delivery processor.
func NewEmailProcessor(logs LogMarker, sender Sender, q JobSource, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logs: logs, sender: sender, queue: q, logger: logger}
}

// Process executes one email delivery job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := p.sender.Send(ctx, payload.RecipientEmail, payload.Subject, payload.Body); err != nil {
		if markErr := p.logs.MarkFailed(ctx, payload.EmailLogID, err.Error()); markErr != nil {
			p.logger.Error("mark email failed", zap.Error(markErr), zap.String("email_log_id", payload.EmailLogID.String()))
		}
		return fmt.Errorf("send email: %w", err)
	}

	if err := p.logs.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Error("mark email sent", zap.Error(err), zap.String("email_log_id", payload.EmailLogID.String()))
		return fmt.Errorf("update email log: %w", err)
	}

	p.logger.Info("email delivered", zap.String("email_log_id", payload.EmailLogID.String()), zap.String("recipient", payload.RecipientEmail))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Returns once
// ctx is canceled, without waiting out a pending backoff.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("email worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			if !p.backoff(ctx) {
				p.logger.Info("email worker stopping")
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if !p.backoff(ctx) {
				p.logger.Info("email worker stopping")
				return
			}
		}
	}
}

// backoff waits for RetryBackoff; false means ctx was canceled first.
func (p *EmailProcessor) backoff(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(queue.RetryBackoff):
		return true
	}
}
