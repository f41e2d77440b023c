package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dtroode/taskboard-server/internal/model"
	"github.com/dtroode/taskboard-server/internal/service"
)

// UsersService is the part of service.Users the admin handlers use.
type UsersService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID) (model.User, error)
	ToggleBlock(ctx context.Context, id uuid.UUID) (model.User, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (model.User, error)
	Delete(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Users serves the admin-only /users routes.
type Users struct {
	svc UsersService
}

func NewUsers(svc UsersService) *Users {
	return &Users{svc: svc}
}

type deletedResponse struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, service.ErrUserNotFound
	}
	return id, nil
}

func (h *Users) List(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Users) Get(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Users) ToggleBlock(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.ToggleBlock(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Users) ToggleActive(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.ToggleActive(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Users) Delete(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Message: "User deleted successfully", User: user})
}
