package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
	applog "navius/app/utils/logger"
)

const petColumns = "id, name, pet_type, breed, age, created_at, updated_at"

// Audit actions written alongside pet mutations
const (
	auditCreate = "create"
	auditUpdate = "update"
	auditDelete = "delete"
)

// PetRepository implements port.PetRepository for PostgreSQL
type PetRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewPetRepository creates a new PostgreSQL pet repository
func NewPetRepository(db DatabaseIface, logger *slog.Logger) port.PetRepository {
	return &PetRepository{
		db:     db,
		logger: applog.DatabaseLogger(logger).With("repository", "pet"),
	}
}

func scanPet(row pgx.Row) (*domain.Pet, error) {
	pet := &domain.Pet{}
	err := row.Scan(
		&pet.ID,
		&pet.Name,
		&pet.PetType,
		&pet.Breed,
		&pet.Age,
		&pet.CreatedAt,
		&pet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return pet, nil
}

// FindAll returns every pet, oldest first
func (r *PetRepository) FindAll(ctx context.Context) ([]*domain.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to list pets", "error", err)
		return nil, apperrors.ClassifyPgError(err, "pet")
	}
	defer rows.Close()

	pets := make([]*domain.Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, apperrors.ClassifyPgError(err, "pet")
		}
		pets = append(pets, pet)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ClassifyPgError(err, "pet")
	}

	return pets, nil
}

// FindByID returns the pet with id or a NOT_FOUND error
func (r *PetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE id = $1`

	pet, err := scanPet(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, apperrors.ClassifyPgError(err, "pet")
	}
	return pet, nil
}

// Create inserts pet and returns the stored row
func (r *PetRepository) Create(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	query := `
		INSERT INTO pets (id, name, pet_type, breed, age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + petColumns

	var stored *domain.Pet
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		stored, err = scanPet(tx.QueryRow(ctx, query,
			pet.ID,
			pet.Name,
			pet.PetType,
			pet.Breed,
			pet.Age,
			pet.CreatedAt,
			pet.UpdatedAt,
		))
		if err != nil {
			return err
		}
		return r.audit(ctx, tx, auditCreate, stored.ID)
	})
	if err != nil {
		r.logger.Error("failed to create pet", "pet_id", pet.ID, "error", err)
		return nil, apperrors.ClassifyPgError(err, "pet")
	}

	r.logger.Info("pet created", "pet_id", stored.ID)
	return stored, nil
}

// Update overwrites the mutable columns of pet
func (r *PetRepository) Update(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	query := `
		UPDATE pets
		SET name = $2, pet_type = $3, breed = $4, age = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + petColumns

	var stored *domain.Pet
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		stored, err = scanPet(tx.QueryRow(ctx, query,
			pet.ID,
			pet.Name,
			pet.PetType,
			pet.Breed,
			pet.Age,
			pet.UpdatedAt,
		))
		if err != nil {
			return err
		}
		return r.audit(ctx, tx, auditUpdate, stored.ID)
	})
	if err != nil {
		return nil, apperrors.ClassifyPgError(err, "pet")
	}

	r.logger.Info("pet updated", "pet_id", stored.ID)
	return stored, nil
}

// Delete removes the pet with id. Deleting a missing pet is NOT_FOUND.
func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFound("pet")
		}
		return r.audit(ctx, tx, auditDelete, id)
	})
	if err != nil {
		return apperrors.ClassifyPgError(err, "pet")
	}

	r.logger.Info("pet deleted", "pet_id", id)
	return nil
}

// audit records who changed a pet in users_audit, inside the mutating transaction
func (r *PetRepository) audit(ctx context.Context, tx pgx.Tx, action string, petID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO users_audit (user_id, action, resource_type, resource_id) VALUES ($1, $2, $3, $4)`,
		domain.ActorID(ctx), action, "pet", petID,
	)
	return err
}

// Count returns the number of stored pets
func (r *PetRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pets`).Scan(&n); err != nil {
		return 0, apperrors.ClassifyPgError(err, "pet")
	}
	return n, nil
}
