package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FeedbackQueue accepts feedback for asynchronous delivery.
type FeedbackQueue interface {
	Enqueue(ctx context.Context, fb *model.Feedback) error
}

type FeedbackService struct {
	queue FeedbackQueue
	log   *logrus.Entry
	now   func() time.Time
}

// NewFeedbackService returns a service that rejects submissions with
// common.ErrServiceUnavailable when queue is nil.
func NewFeedbackService(queue FeedbackQueue, log *logrus.Entry) *FeedbackService {
	return &FeedbackService{queue: queue, log: log, now: time.Now}
}

type FeedbackRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (s *FeedbackService) Submit(ctx context.Context, req FeedbackRequest) (*model.Feedback, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, fmt.Errorf("feedback delivery is not configured: %w", common.ErrServiceUnavailable)
	}

	fb := &model.Feedback{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		Subject:     req.Subject,
		Message:     req.Message,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to queue feedback: %w", err)
	}
	// Message body is not logged.
	s.log.WithFields(logrus.Fields{"feedback_id": fb.ID, "subject": fb.Subject}).Info("feedback queued")
	return fb, nil
}
