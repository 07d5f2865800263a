package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kanbus/kanbus/internal/auth"
	"github.com/kanbus/kanbus/internal/domain"
)

type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password"`
		Name     string `json:"name" minLength:"1" maxLength:"200" doc:"Display name"`
	}
}

type RegisterOutput struct {
	Body *domain.User
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" minLength:"1" doc:"Password"`
	}
}

type LoginOutput struct {
	Body struct {
		Token string       `json:"token" doc:"Bearer token for API and WebSocket access"`
		User  *domain.User `json:"user"`
	}
}

// RegisterAuthRoutes wires the unauthenticated register/login
// endpoints.
func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register a new user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		user, err := authSvc.Register(ctx, input.Body.Email, input.Body.Password, input.Body.Name)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error409Conflict("email already registered")
			}
			return nil, huma.Error500InternalServerError("failed to register", err)
		}

		return &RegisterOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		token, user, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid credentials")
			}
			return nil, huma.Error500InternalServerError("failed to log in", err)
		}

		out := &LoginOutput{}
		out.Body.Token = token
		out.Body.User = user
		return out, nil
	})
}
