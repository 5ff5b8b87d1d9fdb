package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
)

// UserHandler handles user management HTTP requests
type UserHandler struct {
	userUsecase port.UserUsecase
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userUsecase port.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
		logger:      logger,
	}
}

// List returns users, optionally filtered by role and active flag
// @Summary List users
// @Tags users
// @Produce json
// @Param role query string false "Role filter"
// @Param active query bool false "Active filter"
// @Success 200 {array} domain.User
// @Failure 400 {object} middleware.ErrorResponse
// @Router /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	var filter domain.UserFilter

	if raw := c.QueryParam("role"); raw != "" {
		role, err := domain.ParseUserRole(raw)
		if err != nil {
			return apperrors.NewBadRequest(err.Error())
		}
		filter.Role = &role
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewBadRequest("invalid active: must be a boolean")
		}
		filter.Active = &active
	}

	users, err := h.userUsecase.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one user
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} middleware.ErrorResponse
// @Router /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userUsecase.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create registers a new user
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body domain.CreateUserInput true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var in domain.CreateUserInput
	if err := bindBody(c, &in); err != nil {
		return err
	}

	user, err := h.userUsecase.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.logger.Info("User created", "user_id", user.ID, "username", user.Username)
	return c.JSON(http.StatusCreated, user)
}

// Update applies a partial update
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body domain.UpdateUserInput true "Fields to change"
// @Success 200 {object} domain.User
// @Router /v1/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var in domain.UpdateUserInput
	if err := bindBody(c, &in); err != nil {
		return err
	}

	user, err := h.userUsecase.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete removes a user
// @Summary Delete user
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Router /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.userUsecase.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	h.logger.Info("User deleted", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
