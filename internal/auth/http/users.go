package http

import (
	"net/http"

	"github.com/aussiebroadwan/dashauth/internal/auth/service"
	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/aussiebroadwan/dashauth/pkg/httpx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
)

// UsersHandler serves the admin user endpoints.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleList handles GET /v1/users
//
//	@Summary		List users
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserListResponse	"Users ordered by email"
//	@Failure		401	{object}	httpx.ErrorBody				"Invalid or missing access token"
//	@Failure		403	{object}	httpx.ErrorBody				"Caller is not an admin"
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.UserService.ListUsers(ctx)
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), "failed to list users", err)
		return
	}

	resp := authsdk.UserListResponse{Users: make([]authsdk.UserInfo, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserInfo(u))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /v1/users
//
//	@Summary		Create user
//	@Description	Role defaults to viewer.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest	true	"New user"
//	@Success		201		{object}	authsdk.UserInfo			"Created user"
//	@Failure		400		{object}	httpx.ErrorBody				"Invalid email, role or password"
//	@Failure		409		{object}	httpx.ErrorBody				"Email already registered"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.CreateUserRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	u, err := h.UserService.CreateUser(ctx, service.NewUser{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), "failed to create user", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserInfo(u))
}

// HandleSetRole handles PUT /v1/users/{id}/role
//
//	@Summary		Change role
//	@Description	Takes effect with the user's next login or refresh.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"User ID"
//	@Param			request	body		authsdk.SetRoleRequest	true	"New role"
//	@Success		200		{object}	authsdk.UserInfo		"Updated user"
//	@Failure		400		{object}	httpx.ErrorBody			"Unknown role"
//	@Failure		404		{object}	httpx.ErrorBody			"User not found"
//	@Router			/v1/users/{id}/role [put].
func (h *UsersHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.SetRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	u, err := h.UserService.SetRole(ctx, r.PathValue("id"), req.Role)
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), "failed to set role", err)
		return
	}

	slogx.FromContext(ctx).Info("role changed",
		"user_id", u.ID,
		"role", u.Role,
		"by", httpx.UserIDFromContext(ctx),
	)
	httpx.WriteJSON(w, http.StatusOK, toUserInfo(u))
}
