package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TaskService struct {
	taskRepo repository.TaskRepository
	log      *logrus.Entry
}

func NewTaskService(taskRepo repository.TaskRepository, log *logrus.Entry) *TaskService {
	return &TaskService{taskRepo: taskRepo, log: log}
}

type AttachmentInput struct {
	Filename string `json:"filename" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=5000"`
	Status      string            `json:"status" validate:"omitempty,task_status"`
	Priority    string            `json:"priority" validate:"omitempty,task_priority"`
	DueDate     *time.Time        `json:"dueDate"`
	Progress    *int              `json:"progress" validate:"omitempty,min=0,max=100"`
	AssignedTo  *string           `json:"assignedTo" validate:"omitempty,uuid"`
	Attachments []AttachmentInput `json:"attachments" validate:"omitempty,dive"`
}

// UpdateTaskRequest is a partial update: nil fields are left unchanged. An
// empty assignedTo clears the assignee.
type UpdateTaskRequest struct {
	Title       *string            `json:"title" validate:"omitempty,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=5000"`
	Status      *string            `json:"status" validate:"omitnil,task_status"`
	Priority    *string            `json:"priority" validate:"omitnil,task_priority"`
	DueDate     *time.Time         `json:"dueDate"`
	Progress    *int               `json:"progress" validate:"omitempty,min=0,max=100"`
	AssignedTo  *string            `json:"assignedTo" validate:"omitempty,uuid"`
	Attachments *[]AttachmentInput `json:"attachments" validate:"omitnil,dive"`
}

// blankToNil treats "" from form inputs the same as an absent value.
func blankToNil(s *string) *string {
	if s != nil && strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func toAttachments(in []AttachmentInput) []model.Attachment {
	out := make([]model.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, model.Attachment{Filename: a.Filename, URL: a.URL})
	}
	return out
}

func (s *TaskService) List(ctx context.Context, actorID string) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, actorID string, req CreateTaskRequest) (*model.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.AssignedTo = blankToNil(req.AssignedTo)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatusToDo,
		Priority:    model.TaskPriorityMedium,
		DueDate:     req.DueDate,
		OwnerID:     actorID,
		AssignedTo:  req.AssignedTo,
		Attachments: toAttachments(req.Attachments),
	}
	if req.Status != "" {
		task.Status = model.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		task.Priority = model.TaskPriority(req.Priority)
	}
	if req.Progress != nil {
		task.Progress = *req.Progress
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": actorID}).Info("task created")
	return task, nil
}

// load fetches a task and applies the ownership guard. Unknown ids, malformed
// ids and foreign tasks are indistinguishable to the caller.
func (s *TaskService) load(ctx context.Context, actorID, taskID string) (*model.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, common.ErrNotFoundOrUnauthorized
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if err := security.AuthorizeTaskOwner(task, actorID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, actorID, taskID string) (*model.Task, error) {
	return s.load(ctx, actorID, taskID)
}

func (s *TaskService) Update(ctx context.Context, actorID, taskID string, req UpdateTaskRequest) (*model.Task, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, common.NewValidationError("title", "title is required")
		}
		req.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		req.Description = &desc
	}
	clearAssignee := req.AssignedTo != nil && blankToNil(req.AssignedTo) == nil
	req.AssignedTo = blankToNil(req.AssignedTo)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	task, err := s.load(ctx, actorID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = model.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = model.TaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Progress != nil {
		task.Progress = *req.Progress
	}
	if clearAssignee {
		task.AssignedTo = nil
	} else if req.AssignedTo != nil {
		task.AssignedTo = req.AssignedTo
	}
	if req.Attachments != nil {
		task.Attachments = toAttachments(*req.Attachments)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, actorID, taskID string) error {
	task, err := s.load(ctx, actorID, taskID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, task.ID, actorID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFoundOrUnauthorized
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": actorID}).Info("task deleted")
	return nil
}
