package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/validator"
)

// UserUsecase implements port.UserUsecase. Usernames are unique ignoring case.
type UserUsecase struct {
	repo   port.UserRepository
	logger *slog.Logger
	now    func() time.Time

	// serializes the uniqueness check with the insert
	createMu sync.Mutex
}

func NewUserUsecase(repo port.UserRepository, logger *slog.Logger) *UserUsecase {
	return &UserUsecase{
		repo:   repo,
		logger: logger.With("component", "user_usecase"),
		now:    time.Now,
	}
}

func (u *UserUsecase) Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	if err := validator.Default().Validate(in); err != nil {
		return nil, err
	}

	u.createMu.Lock()
	defer u.createMu.Unlock()

	existing, err := u.findByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("username is already taken").WithContext("username", in.Username)
	}

	user := domain.NewUser(in.Username, in.Email, in.DisplayName, u.now())
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Active != nil {
		user.Active = *in.Active
	}

	saved, err := u.repo.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	u.logger.Info("User created", "user_id", saved.ID, "username", saved.Username, "role", string(saved.Role))
	return saved, nil
}

func (u *UserUsecase) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.repo.FindByID(ctx, id)
}

func (u *UserUsecase) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := u.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user").WithContext("username", username)
	}
	return user, nil
}

func (u *UserUsecase) findByUsername(ctx context.Context, username string) (*domain.User, error) {
	users, err := u.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return nil, nil
}

func (u *UserUsecase) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	users, err := u.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(users))
	for _, user := range users {
		if filter.Matches(user) {
			out = append(out, user)
		}
	}
	return out, nil
}

// Update applies the set fields to a copy and saves it, so a rejected
// update leaves the stored user unchanged.
func (u *UserUsecase) Update(ctx context.Context, id uuid.UUID, in domain.UpdateUserInput) (*domain.User, error) {
	if err := validator.Default().Validate(in); err != nil {
		return nil, err
	}

	existing, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	in.Apply(&updated, u.now())

	saved, err := u.repo.Save(ctx, &updated)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (u *UserUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := u.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("user").WithContext("id", id.String())
	}

	u.logger.Info("User deleted", "user_id", id)
	return nil
}

func (u *UserUsecase) Count(ctx context.Context) (int, error) {
	return u.repo.Count(ctx)
}

// HealthCheck fails when the repository cannot be read
func (u *UserUsecase) HealthCheck(ctx context.Context) error {
	_, err := u.repo.Count(ctx)
	return err
}

var _ port.UserUsecase = (*UserUsecase)(nil)
