package security

import (
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
)

// OwnsTask is the single authorization rule for tasks: only the creator may
// see or change one. AssignedTo grants nothing.
func OwnsTask(task *model.Task, actorID string) bool {
	return task != nil && actorID != "" && task.OwnerID == actorID
}

// AuthorizeTaskOwner returns ErrNotFoundOrUnauthorized unless actorID owns task,
// so a missing task and a foreign task look the same to the caller.
func AuthorizeTaskOwner(task *model.Task, actorID string) error {
	if !OwnsTask(task, actorID) {
		return common.ErrNotFoundOrUnauthorized
	}
	return nil
}
