package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/kanbus/kanbus/internal/api/v1"
	"github.com/kanbus/kanbus/internal/domain"
)

func TestCreateTask(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		columnID := uuid.New()
		boardID := uuid.New()

		_, api := humatest.New(t)
		svc := &mockBoardService{
			createTaskFunc: func(_ context.Context, _ *domain.User, col uuid.UUID, title, description string) (*domain.Task, error) {
				assert.Equal(t, columnID, col)
				assert.Equal(t, "Ship release", title)
				assert.Equal(t, "cut the tag", description)
				return &domain.Task{ID: uuid.New(), ColumnID: col, BoardID: boardID, Title: title, Description: description}, nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(memberCtx(uuid.New()), "/tasks", map[string]any{
			"columnId":    columnID.String(),
			"title":       "Ship release",
			"description": "cut the tag",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var got domain.Task
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, boardID, got.BoardID)
	})

	t.Run("unknown_column", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockBoardService{
			createTaskFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID, _, _ string) (*domain.Task, error) {
				return nil, domain.ErrNotFound
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(memberCtx(uuid.New()), "/tasks", map[string]any{
			"columnId": uuid.New().String(),
			"title":    "orphan",
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestUpdateTaskMove(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	newColumn := uuid.New()

	_, api := humatest.New(t)
	svc := &mockBoardService{
		updateTaskFunc: func(_ context.Context, _ *domain.User, id uuid.UUID, title, _ string, col uuid.UUID) (*domain.Task, error) {
			assert.Equal(t, taskID, id)
			assert.Equal(t, newColumn, col)
			return &domain.Task{ID: id, ColumnID: col, Title: title}, nil
		},
	}
	v1.RegisterTaskRoutes(api, svc)

	resp := api.PutCtx(memberCtx(uuid.New()), "/tasks/"+taskID.String(), map[string]any{
		"title":    "Ship release",
		"columnId": newColumn.String(),
	})

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestSubtaskLifecycle(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	subID := uuid.New()

	_, api := humatest.New(t)
	svc := &mockBoardService{
		createSubtaskFunc: func(_ context.Context, _ *domain.User, parent uuid.UUID, title string) (*domain.Subtask, error) {
			assert.Equal(t, taskID, parent)
			return &domain.Subtask{ID: subID, TaskID: parent, Title: title}, nil
		},
		updateSubtaskFunc: func(_ context.Context, _ *domain.User, id uuid.UUID, title string, completed bool) (*domain.Subtask, error) {
			assert.Equal(t, subID, id)
			assert.True(t, completed)
			return &domain.Subtask{ID: id, TaskID: taskID, Title: title, Completed: completed}, nil
		},
		deleteSubtaskFunc: func(_ context.Context, _ *domain.User, id uuid.UUID) error {
			assert.Equal(t, subID, id)
			return nil
		},
	}
	v1.RegisterTaskRoutes(api, svc)

	ctx := memberCtx(uuid.New())

	resp := api.PostCtx(ctx, "/tasks/"+taskID.String()+"/subtasks", map[string]any{"title": "write notes"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = api.PutCtx(ctx, "/subtasks/"+subID.String(), map[string]any{"title": "write notes", "completed": true})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = api.DeleteCtx(ctx, "/subtasks/"+subID.String())
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestDeleteTaskForbidden(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	svc := &mockBoardService{
		deleteTaskFunc: func(_ context.Context, _ *domain.User, _ uuid.UUID) error {
			return domain.ErrForbidden
		},
	}
	v1.RegisterTaskRoutes(api, svc)

	resp := api.DeleteCtx(memberCtx(uuid.New()), "/tasks/"+uuid.New().String())
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
