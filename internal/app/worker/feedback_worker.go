package worker

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/domain/model"
	"taskboard/internal/platform/metrics"
	"taskboard/internal/platform/queue"

	"github.com/sirupsen/logrus"
)

const (
	defaultPollTimeout  = 5 * time.Second
	defaultErrorBackoff = 5 * time.Second
	defaultMaxAttempts  = 3
	deliveredTTL        = 24 * time.Hour
)

// FeedbackSource is the consuming side of the feedback queue.
type FeedbackSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*model.Feedback, error)
	Requeue(ctx context.Context, fb *model.Feedback) error
	MarkDelivered(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseDelivered(ctx context.Context, id string) error
}

// FeedbackWorker pops queued feedback and hands it to a Mailer. Failed sends
// are requeued until MaxAttempts is reached.
type FeedbackWorker struct {
	queue  FeedbackSource
	mailer Mailer
	log    *logrus.Entry

	PollTimeout  time.Duration
	ErrorBackoff time.Duration
	MaxAttempts  int
}

func NewFeedbackWorker(q FeedbackSource, mailer Mailer, log *logrus.Entry) *FeedbackWorker {
	return &FeedbackWorker{
		queue:        q,
		mailer:       mailer,
		log:          log.WithField("worker", "feedback"),
		PollTimeout:  defaultPollTimeout,
		ErrorBackoff: defaultErrorBackoff,
		MaxAttempts:  defaultMaxAttempts,
	}
}

// Start blocks until ctx is cancelled.
func (w *FeedbackWorker) Start(ctx context.Context) {
	w.log.Info("Feedback worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Feedback worker stopping")
			return
		default:
		}

		fb, err := w.queue.Dequeue(ctx, w.PollTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.WithError(err).Error("Failed to pop from feedback queue")
			sleepCtx(ctx, w.ErrorBackoff)
			continue
		}
		w.process(ctx, fb)
	}
}

func (w *FeedbackWorker) process(ctx context.Context, fb *model.Feedback) {
	log := w.log.WithFields(logrus.Fields{"feedback_id": fb.ID, "attempt": fb.Attempts + 1})

	claimed, err := w.queue.MarkDelivered(ctx, fb.ID, deliveredTTL)
	if err != nil {
		log.WithError(err).Error("Failed to claim feedback")
		w.retry(ctx, fb, log)
		return
	}
	if !claimed {
		log.Warn("Feedback already delivered, skipping")
		metrics.FeedbackDeliveries.WithLabelValues("duplicate").Inc()
		return
	}

	if err := w.mailer.SendFeedback(ctx, fb); err != nil {
		log.WithError(err).Error("Failed to deliver feedback")
		if relErr := w.queue.ReleaseDelivered(ctx, fb.ID); relErr != nil {
			log.WithError(relErr).Warn("Failed to release delivery claim")
		}
		w.retry(ctx, fb, log)
		return
	}
	metrics.FeedbackDeliveries.WithLabelValues("sent").Inc()
	log.Info("Feedback delivered")
}

func (w *FeedbackWorker) retry(ctx context.Context, fb *model.Feedback, log *logrus.Entry) {
	fb.Attempts++
	if fb.Attempts >= w.MaxAttempts {
		metrics.FeedbackDeliveries.WithLabelValues("dropped").Inc()
		log.WithField("subject", fb.Subject).Error("Giving up on feedback after max attempts")
		return
	}
	if err := w.queue.Requeue(ctx, fb); err != nil {
		metrics.FeedbackDeliveries.WithLabelValues("dropped").Inc()
		log.WithError(err).Error("Failed to re-queue feedback")
		return
	}
	metrics.FeedbackDeliveries.WithLabelValues("requeued").Inc()
	sleepCtx(ctx, w.ErrorBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
