package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navius/app/domain"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

var petCols = []string{"id", "name", "pet_type", "breed", "age", "created_at", "updated_at"}

func createTestPetRepository(t *testing.T) (*PetRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	repo := NewPetRepository(mockDB, logger.Discard()).(*PetRepository)
	return repo, mockDB
}

func testPet() *domain.Pet {
	breed := "labrador"
	age := 3
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Pet{
		ID:        uuid.New(),
		Name:      "Rex",
		PetType:   "dog",
		Breed:     &breed,
		Age:       &age,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func petRow(p *domain.Pet) *pgxmock.Rows {
	return pgxmock.NewRows(petCols).AddRow(p.ID, p.Name, p.PetType, p.Breed, p.Age, p.CreatedAt, p.UpdatedAt)
}

func TestPetRepository_FindAll(t *testing.T) {
	repo, mockDB := createTestPetRepository(t)
	a, b := testPet(), testPet()
	b.Name = "Tom"

	mockDB.ExpectQuery("SELECT (.+) FROM pets ORDER BY created_at").
		WillReturnRows(pgxmock.NewRows(petCols).
			AddRow(a.ID, a.Name, a.PetType, a.Breed, a.Age, a.CreatedAt, a.UpdatedAt).
			AddRow(b.ID, b.Name, b.PetType, b.Breed, b.Age, b.CreatedAt, b.UpdatedAt))

	pets, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, pets, 2)
	assert.Equal(t, "Rex", pets[0].Name)
	assert.Equal(t, "Tom", pets[1].Name)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestPetRepository_FindAll_Empty(t *testing.T) {
	repo, mockDB := createTestPetRepository(t)

	mockDB.ExpectQuery("SELECT (.+) FROM pets").WillReturnRows(pgxmock.NewRows(petCols))

	pets, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pets)
	assert.Empty(t, pets)
}

func TestPetRepository_FindByID(t *testing.T) {
	pet := testPet()

	tests := []struct {
		name     string
		setupDB  func(pgxmock.PgxPoolIface)
		wantCode apperrors.ErrorCode
	}{
		{
			name: "found",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("SELECT (.+) FROM pets WHERE id").WithArgs(pet.ID).WillReturnRows(petRow(pet))
			},
		},
		{
			name: "not found",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("SELECT (.+) FROM pets WHERE id").WithArgs(pet.ID).WillReturnError(pgx.ErrNoRows)
			},
			wantCode: apperrors.ErrCodeNotFound,
		},
		{
			name: "query error",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("SELECT (.+) FROM pets WHERE id").WithArgs(pet.ID).
					WillReturnError(&pgconn.PgError{Code: "42P01"})
			},
			wantCode: apperrors.ErrCodeQueryError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestPetRepository(t)
			tt.setupDB(mockDB)

			got, err := repo.FindByID(context.Background(), pet.ID)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.GetErrorCode(err))
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, pet.ID, got.ID)
				require.NotNil(t, got.Breed)
				assert.Equal(t, "labrador", *got.Breed)
			}
			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func expectAudit(m pgxmock.PgxPoolIface, actor, action string, id uuid.UUID) {
	m.ExpectExec("INSERT INTO users_audit").
		WithArgs(actor, action, "pet", id).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestPetRepository_Create(t *testing.T) {
	pet := testPet()

	t.Run("success writes audit row", func(t *testing.T) {
		repo, mockDB := createTestPetRepository(t)
		mockDB.ExpectBegin()
		mockDB.ExpectQuery("INSERT INTO pets").
			WithArgs(pet.ID, pet.Name, pet.PetType, pgxmock.AnyArg(), pgxmock.AnyArg(), pet.CreatedAt, pet.UpdatedAt).
			WillReturnRows(petRow(pet))
		expectAudit(mockDB, "alice", "create", pet.ID)
		mockDB.ExpectCommit()

		ctx := domain.ContextWithAuth(context.Background(), &domain.AuthContext{Subject: "alice"})
		got, err := repo.Create(ctx, pet)
		require.NoError(t, err)
		assert.Equal(t, pet.ID, got.ID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("duplicate key rolls back", func(t *testing.T) {
		repo, mockDB := createTestPetRepository(t)
		mockDB.ExpectBegin()
		mockDB.ExpectQuery("INSERT INTO pets").
			WithArgs(pet.ID, pet.Name, pet.PetType, pgxmock.AnyArg(), pgxmock.AnyArg(), pet.CreatedAt, pet.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "pets_pkey"})
		mockDB.ExpectRollback()

		_, err := repo.Create(context.Background(), pet)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeConstraintViolation, apperrors.GetErrorCode(err))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("audit failure rolls back the insert", func(t *testing.T) {
		repo, mockDB := createTestPetRepository(t)
		mockDB.ExpectBegin()
		mockDB.ExpectQuery("INSERT INTO pets").
			WithArgs(pet.ID, pet.Name, pet.PetType, pgxmock.AnyArg(), pgxmock.AnyArg(), pet.CreatedAt, pet.UpdatedAt).
			WillReturnRows(petRow(pet))
		mockDB.ExpectExec("INSERT INTO users_audit").
			WithArgs("system", "create", "pet", pet.ID).
			WillReturnError(&pgconn.PgError{Code: "42P01"})
		mockDB.ExpectRollback()

		_, err := repo.Create(context.Background(), pet)
		assert.Equal(t, apperrors.ErrCodeQueryError, apperrors.GetErrorCode(err))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestPetRepository_Update(t *testing.T) {
	pet := testPet()

	t.Run("success", func(t *testing.T) {
		repo, mockDB := createTestPetRepository(t)
		mockDB.ExpectBegin()
		mockDB.ExpectQuery("UPDATE pets").
			WithArgs(pet.ID, pet.Name, pet.PetType, pgxmock.AnyArg(), pgxmock.AnyArg(), pet.UpdatedAt).
			WillReturnRows(petRow(pet))
		expectAudit(mockDB, "system", "update", pet.ID)
		mockDB.ExpectCommit()

		got, err := repo.Update(context.Background(), pet)
		require.NoError(t, err)
		assert.Equal(t, pet.Name, got.Name)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mockDB := createTestPetRepository(t)
		mockDB.ExpectBegin()
		mockDB.ExpectQuery("UPDATE pets").
			WithArgs(pet.ID, pet.Name, pet.PetType, pgxmock.AnyArg(), pgxmock.AnyArg(), pet.UpdatedAt).
			WillReturnError(pgx.ErrNoRows)
		mockDB.ExpectRollback()

		_, err := repo.Update(context.Background(), pet)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetErrorCode(err))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestPetRepository_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		setupDB  func(pgxmock.PgxPoolIface)
		wantCode apperrors.ErrorCode
	}{
		{
			name: "deleted",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectBegin()
				m.ExpectExec("DELETE FROM pets").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
				expectAudit(m, "system", "delete", id)
				m.ExpectCommit()
			},
		},
		{
			name: "no rows affected",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectBegin()
				m.ExpectExec("DELETE FROM pets").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
				m.ExpectRollback()
			},
			wantCode: apperrors.ErrCodeNotFound,
		},
		{
			name: "connection lost",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectBegin()
				m.ExpectExec("DELETE FROM pets").WithArgs(id).WillReturnError(errors.New("conn closed"))
				m.ExpectRollback()
			},
			wantCode: apperrors.ErrCodeDatabaseError,
		},
		{
			name: "begin fails",
			setupDB: func(m pgxmock.PgxPoolIface) {
				m.ExpectBegin().WillReturnError(errors.New("pool exhausted"))
			},
			wantCode: apperrors.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestPetRepository(t)
			tt.setupDB(mockDB)

			err := repo.Delete(context.Background(), id)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperrors.GetErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestPetRepository_Count(t *testing.T) {
	repo, mockDB := createTestPetRepository(t)
	mockDB.ExpectQuery(`SELECT COUNT\(\*\) FROM pets`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
