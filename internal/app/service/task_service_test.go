package service

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestCreate_AppliesDefaults(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	task, err := env.tasks.Create(context.Background(), "u-1", CreateTaskRequest{Title: "  Write spec  "})
	require.NoError(t, err)
	assert.Equal(t, "Write spec", task.Title)
	assert.Equal(t, model.TaskStatusToDo, task.Status)
	assert.Equal(t, model.TaskPriorityMedium, task.Priority)
	assert.Equal(t, "u-1", task.OwnerID)
	assert.Equal(t, 0, task.Progress)
	assert.NotNil(t, task.Attachments)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	cases := map[string]CreateTaskRequest{
		"missing title":  {},
		"blank title":    {Title: "  "},
		"bad status":     {Title: "x", Status: "Blocked"},
		"bad priority":   {Title: "x", Priority: "Urgent"},
		"progress > 100": {Title: "x", Progress: intPtr(101)},
		"bad assignee":   {Title: "x", AssignedTo: strPtr("bob")},
		"bad attachment": {Title: "x", Attachments: []AttachmentInput{{Filename: "a"}}},
	}
	for name, req := range cases {
		_, err := env.tasks.Create(ctx, "u-1", req)
		assert.ErrorIs(t, err, common.ErrValidation, name)
	}
}

func TestCreateThenGet_RoundTripsFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	assignee := uuid.NewString()
	created, err := env.tasks.Create(ctx, "u-1", CreateTaskRequest{
		Title:       "Ship",
		Description: "release 1.0",
		Status:      "In Progress",
		Priority:    "High",
		DueDate:     &due,
		Progress:    intPtr(30),
		AssignedTo:  &assignee,
		Attachments: []AttachmentInput{{Filename: "plan.pdf", URL: "https://files.example/plan.pdf"}},
	})
	require.NoError(t, err)

	got, err := env.tasks.Get(ctx, "u-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestOwnershipIsolation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	mine, err := env.tasks.Create(ctx, "alice", CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	list, err := env.tasks.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.tasks.Get(ctx, "bob", mine.ID)
	assert.ErrorIs(t, err, common.ErrNotFoundOrUnauthorized)

	_, err = env.tasks.Update(ctx, "bob", mine.ID, UpdateTaskRequest{Title: strPtr("hijacked")})
	assert.ErrorIs(t, err, common.ErrNotFoundOrUnauthorized)

	err = env.tasks.Delete(ctx, "bob", mine.ID)
	assert.ErrorIs(t, err, common.ErrNotFoundOrUnauthorized)

	// Foreign and missing ids look the same.
	_, missing := env.tasks.Get(ctx, "bob", uuid.NewString())
	_, malformed := env.tasks.Get(ctx, "bob", "not-a-uuid")
	_, foreign := env.tasks.Get(ctx, "bob", mine.ID)
	assert.Equal(t, missing, foreign)
	assert.Equal(t, malformed, foreign)

	still, err := env.tasks.Get(ctx, "alice", mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", still.Title)
}

func TestUpdate_PartialLeavesOtherFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.tasks.Create(ctx, "u-1", CreateTaskRequest{Title: "t", Description: "d", Priority: "Low"})
	require.NoError(t, err)

	updated, err := env.tasks.Update(ctx, "u-1", created.ID, UpdateTaskRequest{Status: strPtr("Done"), Progress: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, "t", updated.Title)
	assert.Equal(t, "d", updated.Description)
	assert.Equal(t, model.TaskPriorityLow, updated.Priority)
	assert.Equal(t, "u-1", updated.OwnerID)

	// Status moves freely in any direction.
	updated, err = env.tasks.Update(ctx, "u-1", created.ID, UpdateTaskRequest{Status: strPtr("To Do")})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusToDo, updated.Status)
}

func TestUpdate_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.tasks.Create(ctx, "u-1", CreateTaskRequest{Title: "t"})
	require.NoError(t, err)

	_, err = env.tasks.Update(ctx, "u-1", created.ID, UpdateTaskRequest{Title: strPtr(" ")})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = env.tasks.Update(ctx, "u-1", created.ID, UpdateTaskRequest{Status: strPtr("")})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = env.tasks.Update(ctx, "u-1", created.ID, UpdateTaskRequest{Progress: intPtr(-1)})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.tasks.Create(ctx, "u-1", CreateTaskRequest{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, env.tasks.Delete(ctx, "u-1", created.ID))
	_, err = env.tasks.Get(ctx, "u-1", created.ID)
	assert.ErrorIs(t, err, common.ErrNotFoundOrUnauthorized)
	assert.ErrorIs(t, env.tasks.Delete(ctx, "u-1", created.ID), common.ErrNotFoundOrUnauthorized)
}

func TestAssignee_BlankMeansUnsetAndAnyIDIsStored(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	task, err := env.tasks.Create(ctx, "u-1", CreateTaskRequest{Title: "t", AssignedTo: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, task.AssignedTo)

	// The assignee is not checked against the user store.
	someone := uuid.NewString()
	task, err = env.tasks.Update(ctx, "u-1", task.ID, UpdateTaskRequest{AssignedTo: &someone})
	require.NoError(t, err)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, someone, *task.AssignedTo)

	task, err = env.tasks.Update(ctx, "u-1", task.ID, UpdateTaskRequest{Title: strPtr("renamed")})
	require.NoError(t, err)
	require.NotNil(t, task.AssignedTo, "omitted assignee is left unchanged")

	task, err = env.tasks.Update(ctx, "u-1", task.ID, UpdateTaskRequest{AssignedTo: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, task.AssignedTo)

	got, err := env.tasks.Get(ctx, "u-1", task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
}
