package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"navius/app/domain"
	"navius/app/port"
)

// PetHandler handles pet CRUD HTTP requests
type PetHandler struct {
	petUsecase port.PetUsecase
	logger     *slog.Logger
}

// NewPetHandler creates a new pet handler
func NewPetHandler(petUsecase port.PetUsecase, logger *slog.Logger) *PetHandler {
	return &PetHandler{
		petUsecase: petUsecase,
		logger:     logger,
	}
}

// List returns every pet
// @Summary List pets
// @Tags pets
// @Produce json
// @Success 200 {array} domain.Pet
// @Router /v1/pets [get]
func (h *PetHandler) List(c echo.Context) error {
	pets, err := h.petUsecase.List(c.Request().Context())
	if err != nil {
		return err
	}
	if pets == nil {
		pets = []*domain.Pet{}
	}
	return c.JSON(http.StatusOK, pets)
}

// Get returns one pet
// @Summary Get pet
// @Tags pets
// @Produce json
// @Param id path string true "Pet ID"
// @Success 200 {object} domain.Pet
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /v1/pets/{id} [get]
func (h *PetHandler) Get(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	pet, err := h.petUsecase.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}

// Create stores a new pet
// @Summary Create pet
// @Tags pets
// @Accept json
// @Produce json
// @Param pet body domain.CreatePetRequest true "Pet"
// @Success 201 {object} domain.Pet
// @Failure 400 {object} middleware.ErrorResponse
// @Router /v1/pets [post]
func (h *PetHandler) Create(c echo.Context) error {
	var req domain.CreatePetRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	pet, err := h.petUsecase.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	h.logger.Info("Pet created", "pet_id", pet.ID)
	return c.JSON(http.StatusCreated, pet)
}

// Update applies a partial update
// @Summary Update pet
// @Tags pets
// @Accept json
// @Produce json
// @Param id path string true "Pet ID"
// @Param pet body domain.UpdatePetRequest true "Fields to change"
// @Success 200 {object} domain.Pet
// @Router /v1/pets/{id} [put]
func (h *PetHandler) Update(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req domain.UpdatePetRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	pet, err := h.petUsecase.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}

// Delete removes a pet
// @Summary Delete pet
// @Tags pets
// @Param id path string true "Pet ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /v1/pets/{id} [delete]
func (h *PetHandler) Delete(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.petUsecase.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	h.logger.Info("Pet deleted", "pet_id", id)
	return c.NoContent(http.StatusNoContent)
}
