package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navius/app/domain"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/validator"
)

func newUser(username string) *domain.User {
	return domain.NewUser(username, username+"@example.com", "Display "+username, time.Now())
}

func TestRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[*domain.User]("user")

	alice := newUser("alice")
	saved, err := repo.Save(ctx, alice)
	require.NoError(t, err)
	assert.Same(t, alice, saved)

	got, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepository_SaveValidates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[*domain.User]("user")

	bad := newUser("x")
	bad.Email = "not-an-email"

	_, err := repo.Save(ctx, bad)
	require.Error(t, err)

	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "email")
	assert.Contains(t, verr.Errors, "username")

	n, _ := repo.Count(ctx)
	assert.Zero(t, n)
}

func TestRepository_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[*domain.User]("user")

	names := []string{"carol", "alice", "bob"}
	users := make([]*domain.User, len(names))
	for i, name := range names {
		users[i] = newUser(name)
		_, err := repo.Save(ctx, users[i])
		require.NoError(t, err)
	}

	// upsert keeps the original position
	users[0].DisplayName = "Carol Updated"
	_, err := repo.Save(ctx, users[0])
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"carol", "alice", "bob"}, []string{all[0].Username, all[1].Username, all[2].Username})
	assert.Equal(t, "Carol Updated", all[0].DisplayName)

	deleted, err := repo.Delete(ctx, users[1].ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, users[1].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	all, _ = repo.FindAll(ctx)
	assert.Equal(t, []string{"carol", "bob"}, []string{all[0].Username, all[1].Username})

	exists, _ := repo.Exists(ctx, users[1].ID)
	assert.False(t, exists)
}

func TestRepository_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[*domain.User]("user")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Save(ctx, newUser("user_"+uuid.NewString()[:8]))
		}()
	}
	wg.Wait()

	n, _ := repo.Count(ctx)
	assert.Equal(t, 50, n)
	all, _ := repo.FindAll(ctx)
	assert.Len(t, all, 50)
}
