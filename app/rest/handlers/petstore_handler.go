package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"navius/app/port"
)

// PetstoreHandler serves pets fetched from the upstream Petstore API
type PetstoreHandler struct {
	resources port.ResourceUsecase
}

func NewPetstoreHandler(resources port.ResourceUsecase) *PetstoreHandler {
	return &PetstoreHandler{resources: resources}
}

// GetPet returns an upstream pet, cached per id
// @Summary Get upstream pet
// @Tags petstore
// @Produce json
// @Param id path int true "Upstream pet ID"
// @Success 200 {object} domain.PetstorePet
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /v1/petstore/pets/{id} [get]
func (h *PetstoreHandler) GetPet(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}

	pet, err := h.resources.GetPetstorePet(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}
