package domain

import (
	"github.com/google/uuid"

	"navius/app/utils/validator"
)

// Entity is anything stored by id in a repository.
type Entity interface {
	GetID() uuid.UUID
	Validate() error
}

func validate(v any) error {
	return validator.Default().Validate(v)
}
