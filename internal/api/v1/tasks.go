package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

type CreateTaskInput struct {
	Body struct {
		ColumnID    uuid.UUID `json:"columnId" doc:"Column the task starts in"`
		Title       string    `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string    `json:"description,omitempty" doc:"Task description"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Title       string    `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string    `json:"description,omitempty" doc:"Task description"`
		ColumnID    uuid.UUID `json:"columnId" doc:"Column the task belongs to; change it to move the task"`
	}
}

type UpdateTaskOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type CreateSubtaskInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Parent task ID"`
	Body   struct {
		Title string `json:"title" minLength:"1" maxLength:"500" doc:"Subtask title"`
	}
}

type CreateSubtaskOutput struct {
	Body *domain.Subtask
}

type UpdateSubtaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Subtask ID"`
	Body struct {
		Title     string `json:"title" minLength:"1" maxLength:"500" doc:"Subtask title"`
		Completed bool   `json:"completed" doc:"Completion state"`
	}
}

type UpdateSubtaskOutput struct {
	Body *domain.Subtask
}

type DeleteSubtaskInput struct {
	ID uuid.UUID `path:"id" doc:"Subtask ID"`
}

func RegisterTaskRoutes(api huma.API, boards BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		t, err := boards.CreateTask(ctx, actor, input.Body.ColumnID, input.Body.Title, input.Body.Description)
		if err != nil {
			return nil, serviceError(err, "failed to create task")
		}

		return &CreateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		t, err := boards.UpdateTask(ctx, actor, input.ID, input.Body.Title, input.Body.Description, input.Body.ColumnID)
		if err != nil {
			return nil, serviceError(err, "failed to update task")
		}

		return &UpdateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete a task",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.DeleteTask(ctx, actor, input.ID); err != nil {
			return nil, serviceError(err, "failed to delete task")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-subtask",
		Method:      http.MethodPost,
		Path:        "/tasks/{taskID}/subtasks",
		Summary:     "Add a subtask to a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateSubtaskInput) (*CreateSubtaskOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		sub, err := boards.CreateSubtask(ctx, actor, input.TaskID, input.Body.Title)
		if err != nil {
			return nil, serviceError(err, "failed to create subtask")
		}

		return &CreateSubtaskOutput{Body: sub}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-subtask",
		Method:      http.MethodPut,
		Path:        "/subtasks/{id}",
		Summary:     "Rename or toggle a subtask",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateSubtaskInput) (*UpdateSubtaskOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		sub, err := boards.UpdateSubtask(ctx, actor, input.ID, input.Body.Title, input.Body.Completed)
		if err != nil {
			return nil, serviceError(err, "failed to update subtask")
		}

		return &UpdateSubtaskOutput{Body: sub}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-subtask",
		Method:        http.MethodDelete,
		Path:          "/subtasks/{id}",
		Summary:       "Delete a subtask",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteSubtaskInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.DeleteSubtask(ctx, actor, input.ID); err != nil {
			return nil, serviceError(err, "failed to delete subtask")
		}

		return nil, nil
	})
}
