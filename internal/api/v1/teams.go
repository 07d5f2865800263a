package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

type CreateTeamInput struct {
	Body struct {
		Name      string      `json:"name" minLength:"1" maxLength:"200" doc:"Team name"`
		MemberIDs []uuid.UUID `json:"memberIds,omitempty" doc:"Initial members; the caller is always included"`
	}
}

type CreateTeamOutput struct {
	Body *domain.Team
}

type ListTeamsOutput struct {
	Body []*domain.Team
}

type GetTeamInput struct {
	ID uuid.UUID `path:"id" doc:"Team ID"`
}

type GetTeamOutput struct {
	Body *domain.Team
}

type UpdateTeamInput struct {
	ID   uuid.UUID `path:"id" doc:"Team ID"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"200" doc:"New team name"`
	}
}

type UpdateTeamOutput struct {
	Body *domain.Team
}

type DeleteTeamInput struct {
	ID uuid.UUID `path:"id" doc:"Team ID"`
}

type TeamMemberInput struct {
	ID     uuid.UUID `path:"id" doc:"Team ID"`
	UserID uuid.UUID `path:"userID" doc:"User ID"`
}

type TeamBoardInput struct {
	ID      uuid.UUID `path:"id" doc:"Team ID"`
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

func RegisterTeamRoutes(api huma.API, boards BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-team",
		Method:      http.MethodPost,
		Path:        "/teams",
		Summary:     "Create a team",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *CreateTeamInput) (*CreateTeamOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		t, err := boards.CreateTeam(ctx, actor, input.Body.Name, input.Body.MemberIDs)
		if err != nil {
			return nil, serviceError(err, "failed to create team")
		}

		return &CreateTeamOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-teams",
		Method:      http.MethodGet,
		Path:        "/teams",
		Summary:     "List teams",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, _ *struct{}) (*ListTeamsOutput, error) {
		teams, err := boards.ListTeams(ctx)
		if err != nil {
			return nil, serviceError(err, "failed to list teams")
		}

		return &ListTeamsOutput{Body: teams}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-team",
		Method:      http.MethodGet,
		Path:        "/teams/{id}",
		Summary:     "Get a team",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *GetTeamInput) (*GetTeamOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		t, err := boards.GetTeam(ctx, actor, input.ID)
		if err != nil {
			return nil, serviceError(err, "failed to get team")
		}

		return &GetTeamOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-team",
		Method:      http.MethodPut,
		Path:        "/teams/{id}",
		Summary:     "Rename a team",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *UpdateTeamInput) (*UpdateTeamOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		t, err := boards.UpdateTeam(ctx, actor, input.ID, input.Body.Name)
		if err != nil {
			return nil, serviceError(err, "failed to update team")
		}

		return &UpdateTeamOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-team",
		Method:        http.MethodDelete,
		Path:          "/teams/{id}",
		Summary:       "Delete a team",
		Tags:          []string{"Teams"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteTeamInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.DeleteTeam(ctx, actor, input.ID); err != nil {
			return nil, serviceError(err, "failed to delete team")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-team-member",
		Method:        http.MethodPost,
		Path:          "/teams/{id}/members/{userID}",
		Summary:       "Add a member to a team",
		Tags:          []string{"Teams"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TeamMemberInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.AddTeamMember(ctx, actor, input.ID, input.UserID); err != nil {
			return nil, serviceError(err, "failed to add team member")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-team-member",
		Method:        http.MethodDelete,
		Path:          "/teams/{id}/members/{userID}",
		Summary:       "Remove a member from a team",
		Tags:          []string{"Teams"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TeamMemberInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.RemoveTeamMember(ctx, actor, input.ID, input.UserID); err != nil {
			return nil, serviceError(err, "failed to remove team member")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "attach-team-board",
		Method:        http.MethodPost,
		Path:          "/teams/{id}/boards/{boardID}",
		Summary:       "Attach a team to a board",
		Tags:          []string{"Teams"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TeamBoardInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.AttachTeamToBoard(ctx, actor, input.ID, input.BoardID); err != nil {
			return nil, serviceError(err, "failed to attach team to board")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "detach-team-board",
		Method:        http.MethodDelete,
		Path:          "/teams/{id}/boards/{boardID}",
		Summary:       "Detach a team from a board",
		Tags:          []string{"Teams"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TeamBoardInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := boards.DetachTeamFromBoard(ctx, actor, input.ID, input.BoardID); err != nil {
			return nil, serviceError(err, "failed to detach team from board")
		}

		return nil, nil
	})
}
