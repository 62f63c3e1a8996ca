package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"opticart/internal/model"
	"opticart/internal/pagination"
	"opticart/internal/service"
)

const (
	usersPageSize    = 10
	maxUsersPageSize = 1000
)

// UserHandler serves the profile and user administration endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// DeleteUserRequest names the account to delete.
type DeleteUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdateUserRequest names the account by email; absent fields are left alone.
type UpdateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Username  *string `json:"username" validate:"omitempty,min=1,max=50"`
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	IsAdmin   *bool   `json:"is_admin"`
}

// Profile godoc
// @Summary Current user's profile
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=model.User}
// @Failure 401 {object} ErrorEnvelope
// @Router /user/profile/ [get]
func (h *UserHandler) Profile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags user
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=pagination.Page[model.User]}
// @Failure 403 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /user/users/ [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	p, opts, err := pageParams(c, usersPageSize, maxUsersPageSize)
	if err != nil {
		return err
	}
	users, total, err := h.svc.ListUsers(c.Request().Context(), actor, opts)
	if err != nil {
		return err
	}
	page, err := pagination.New[model.User](users, total, p, requestURL(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} Envelope{data=model.User}
// @Failure 400 {object} ErrorEnvelope
// @Failure 403 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /user/update-user/ [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateUser(c.Request().Context(), actor, service.UpdateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user with everything they own
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteUserRequest true "Account email"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 403 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /user/delete-user/ [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req DeleteUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), actor, req.Email); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "user deleted")
}
