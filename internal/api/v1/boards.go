package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

type CreateBoardInput struct {
	Body struct {
		Name    string   `json:"name" minLength:"1" maxLength:"200" doc:"Board name"`
		Columns []string `json:"columns,omitempty" doc:"Initial column names, in display order"`
	}
}

type CreateBoardOutput struct {
	Body *domain.Board
}

type ListBoardsOutput struct {
	Body []*domain.Board
}

type GetBoardInput struct {
	ID uuid.UUID `path:"id" doc:"Board ID"`
}

type GetBoardOutput struct {
	Body *domain.Board
}

// ColumnSpec is one entry of the desired column list submitted on
// update. Omitting the id marks the column as new.
type ColumnSpec struct {
	ID   *uuid.UUID `json:"id,omitempty" doc:"Existing column ID; omit to create"`
	Name string     `json:"name" minLength:"1" maxLength:"200" doc:"Column name"`
}

type UpdateBoardInput struct {
	ID   uuid.UUID `path:"id" doc:"Board ID"`
	Body struct {
		Name    *string      `json:"name,omitempty" maxLength:"200" doc:"New board name"`
		Columns []ColumnSpec `json:"columns,omitempty" doc:"Full desired column list; omit to leave columns untouched"`
		TeamIDs []uuid.UUID  `json:"teamIds,omitempty" doc:"Full desired team association list; omit to leave untouched"`
	}
}

type UpdateBoardOutput struct {
	Body *domain.Board
}

type DeleteBoardInput struct {
	ID uuid.UUID `path:"id" doc:"Board ID"`
}

type BoardUserInput struct {
	ID     uuid.UUID `path:"id" doc:"Board ID"`
	UserID uuid.UUID `path:"userID" doc:"User ID"`
}

func RegisterBoardRoutes(api huma.API, boards BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-board",
		Method:      http.MethodPost,
		Path:        "/boards",
		Summary:     "Create a board",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *CreateBoardInput) (*CreateBoardOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		b, err := boards.CreateBoard(ctx, actor, input.Body.Name, input.Body.Columns)
		if err != nil {
			return nil, serviceError(err, "failed to create board")
		}

		return &CreateBoardOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards visible to the caller",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		list, err := boards.ListBoards(ctx, actor)
		if err != nil {
			return nil, serviceError(err, "failed to list boards")
		}

		return &ListBoardsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{id}",
		Summary:     "Get a board with its columns, tasks and subtasks",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		b, err := boards.GetBoard(ctx, actor, input.ID)
		if err != nil {
			return nil, serviceError(err, "failed to get board")
		}

		return &GetBoardOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-board",
		Method:      http.MethodPut,
		Path:        "/boards/{id}",
		Summary:     "Update a board, reconciling its column list",
		Description: "The submitted column list is the full desired set: columns absent from it are deleted together with their tasks, entries without an id are created, and renames are applied. The whole update commits atomically.",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *UpdateBoardInput) (*UpdateBoardOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		patch := domain.BoardPatch{
			Name:    input.Body.Name,
			TeamIDs: input.Body.TeamIDs,
		}
		if input.Body.Columns != nil {
			patch.Columns = make([]domain.ColumnChange, 0, len(input.Body.Columns))
			for _, c := range input.Body.Columns {
				change := domain.ColumnChange{Name: c.Name}
				if c.ID != nil {
					change.ID = *c.ID
				}
				patch.Columns = append(patch.Columns, change)
			}
		}

		b, err := boards.UpdateBoard(ctx, actor, input.ID, patch)
		if err != nil {
			return nil, serviceError(err, "failed to update board")
		}

		return &UpdateBoardOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-board",
		Method:        http.MethodDelete,
		Path:          "/boards/{id}",
		Summary:       "Delete a board",
		Description:   "Fails with 409 while teams are still attached; detach them first.",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteBoardInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.DeleteBoard(ctx, actor, input.ID); err != nil {
			return nil, serviceError(err, "failed to delete board")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "share-board",
		Method:        http.MethodPost,
		Path:          "/boards/{id}/users/{userID}",
		Summary:       "Associate a user directly with a board",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *BoardUserInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.ShareBoard(ctx, actor, input.ID, input.UserID); err != nil {
			return nil, serviceError(err, "failed to share board")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "unshare-board",
		Method:        http.MethodDelete,
		Path:          "/boards/{id}/users/{userID}",
		Summary:       "Remove a user's direct board association",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *BoardUserInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.UnshareBoard(ctx, actor, input.ID, input.UserID); err != nil {
			return nil, serviceError(err, "failed to unshare board")
		}

		return nil, nil
	})
}
