package handlers

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "navius/app/utils/errors"
)

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequest("invalid " + name + ": must be a UUID").WithCause(err)
	}
	return id, nil
}

func int64Param(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperrors.NewBadRequest("invalid " + name + ": must be an integer").WithCause(err)
	}
	return id, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.NewBadRequest("invalid request body").WithCause(err)
	}
	return nil
}
