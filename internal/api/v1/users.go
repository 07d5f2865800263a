package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/kanbus/kanbus/internal/domain"
)

type ListUsersOutput struct {
	Body []*domain.User
}

type GetMeOutput struct {
	Body *domain.User
}

type UpdateUserRoleInput struct {
	ID   uuid.UUID `path:"id" doc:"User ID"`
	Body struct {
		Role domain.Role `json:"role" enum:"ADMIN,MEMBER" doc:"New role"`
	}
}

type UpdateUserRoleOutput struct {
	Body *domain.User
}

func RegisterUserRoutes(api huma.API, users domain.UserRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Description: "Any authenticated user may list users to share boards and build teams.",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
		if _, err := actorFromContext(ctx); err != nil {
			return nil, err
		}

		list, err := users.List(ctx)
		if err != nil {
			return nil, serviceError(err, "failed to list users")
		}

		return &ListUsersOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get the authenticated user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*GetMeOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		u, err := users.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, serviceError(err, "failed to get user")
		}

		return &GetMeOutput{Body: u}, nil
	})

}

// RegisterAdminUserRoutes wires routes mounted behind the RequireAdmin
// middleware.
func RegisterAdminUserRoutes(api huma.API, users domain.UserRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "update-user-role",
		Method:      http.MethodPut,
		Path:        "/users/{id}/role",
		Summary:     "Change a user's role",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserRoleInput) (*UpdateUserRoleOutput, error) {
		u, err := users.GetByID(ctx, input.ID)
		if err != nil {
			return nil, serviceError(err, "failed to get user")
		}

		u.Role = input.Body.Role
		if err := users.Update(ctx, u); err != nil {
			return nil, serviceError(err, "failed to update user role")
		}

		return &UpdateUserRoleOutput{Body: u}, nil
	})
}
