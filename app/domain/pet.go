package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pet is a pet record stored by the service
type Pet struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	PetType   string    `json:"pet_type"`
	Breed     *string   `json:"breed,omitempty"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID implements Entity
func (p *Pet) GetID() uuid.UUID { return p.ID }

// Validate implements Entity
func (p *Pet) Validate() error {
	return validate(struct {
		Name    string  `json:"name" validate:"required,min=1,max=100"`
		PetType string  `json:"pet_type" validate:"required,pet_type"`
		Breed   *string `json:"breed" validate:"omitempty,max=100"`
		Age     *int    `json:"age" validate:"omitempty,min=0,max=100"`
	}{p.Name, p.PetType, p.Breed, p.Age})
}

// CreatePetRequest is the payload for creating a pet
type CreatePetRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=100"`
	PetType string  `json:"pet_type" validate:"required,pet_type"`
	Breed   *string `json:"breed,omitempty" validate:"omitempty,max=100"`
	Age     *int    `json:"age,omitempty" validate:"omitempty,min=0,max=100"`
}

// Validate checks the request fields
func (r CreatePetRequest) Validate() error { return validate(r) }

// UpdatePetRequest is the payload for a partial pet update. Nil fields are
// left unchanged.
type UpdatePetRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PetType *string `json:"pet_type,omitempty" validate:"omitempty,pet_type"`
	Breed   *string `json:"breed,omitempty" validate:"omitempty,max=100"`
	Age     *int    `json:"age,omitempty" validate:"omitempty,min=0,max=100"`
}

// Validate checks the request fields
func (r UpdatePetRequest) Validate() error { return validate(r) }

// Apply copies every set field onto pet and bumps UpdatedAt.
func (r UpdatePetRequest) Apply(pet *Pet, now time.Time) {
	if r.Name != nil {
		pet.Name = *r.Name
	}
	if r.PetType != nil {
		pet.PetType = *r.PetType
	}
	if r.Breed != nil {
		pet.Breed = r.Breed
	}
	if r.Age != nil {
		pet.Age = r.Age
	}
	pet.UpdatedAt = now
}

// NewPet builds a pet from a create request with a fresh id and timestamps.
func NewPet(req CreatePetRequest, now time.Time) *Pet {
	return &Pet{
		ID:        uuid.New(),
		Name:      req.Name,
		PetType:   req.PetType,
		Breed:     req.Breed,
		Age:       req.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
