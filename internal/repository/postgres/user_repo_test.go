package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmr/account-service/internal/auth"
	"github.com/dmr/account-service/internal/domain"
	"github.com/dmr/account-service/internal/repository"
	"github.com/dmr/account-service/internal/repository/postgres"
	"github.com/dmr/account-service/internal/testutil"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	user, err := repos.User.Create(ctx, "Ada", "ada@example.com", "correcthorse1")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "create must not return the hash")
	assert.False(t, user.SignupDate.IsZero())

	// The stored hash verifies against the raw password.
	stored, err := repos.User.GetByEmailWithSecret(ctx, "ada@example.com")
	require.NoError(t, err)
	ok, err := hasher.Verify("correcthorse1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	_, err := repos.User.Create(ctx, "Ada", "ada@example.com", "correcthorse1")
	require.NoError(t, err)

	// The unique constraint catches the duplicate even without the
	// orchestrator's pre-check.
	_, err = repos.User.Create(ctx, "Other Ada", "ada@example.com", "differentpass1")
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	created, err := repos.User.Create(ctx, "Ada", "Ada@Example.COM", "correcthorse1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)

	found, err := repos.User.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repos.User.Create(ctx, "Shadow", "ADA@EXAMPLE.COM", "anotherpass1")
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestUserRepository_GetByEmailOmitsHash(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	_, err := repos.User.Create(ctx, "Ada", "ada@example.com", "correcthorse1")
	require.NoError(t, err)

	public, err := repos.User.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, public.PasswordHash)

	secret, err := repos.User.GetByEmailWithSecret(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret.PasswordHash)
}

func TestUserRepository_GetMissing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	_, err := repos.User.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repos.User.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	user, err := repos.User.Create(ctx, "Ada", "ada@example.com", "correcthorse1")
	require.NoError(t, err)

	newName := "Ada Lovelace"
	updated, err := repos.User.Update(ctx, user.ID, repository.UpdateUserParams{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, user.Email, updated.Email)
	assert.True(t, updated.UpdatedAt.After(user.UpdatedAt) || updated.UpdatedAt.Equal(user.UpdatedAt))
}

func TestUserRepository_UpdatePasswordRotatesHash(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	user, err := repos.User.Create(ctx, "Ada", "ada@example.com", "oldpassword1")
	require.NoError(t, err)

	before, err := repos.User.GetByEmailWithSecret(ctx, "ada@example.com")
	require.NoError(t, err)

	newPassword := "newpassword1"
	_, err = repos.User.Update(ctx, user.ID, repository.UpdateUserParams{Password: &newPassword})
	require.NoError(t, err)

	after, err := repos.User.GetByEmailWithSecret(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	ok, err := hasher.Verify("oldpassword1", after.PasswordHash)
	require.NoError(t, err)
	assert.False(t, ok, "old password must no longer verify")

	ok, err = hasher.Verify("newpassword1", after.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok, "new password must verify")
}

func TestUserRepository_UpdateNoFields(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	user, err := repos.User.Create(ctx, "Ada", "ada@example.com", "correcthorse1")
	require.NoError(t, err)

	_, err = repos.User.Update(ctx, user.ID, repository.UpdateUserParams{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
}

func TestUserRepository_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	user, err := repos.User.Create(ctx, "Ada", "ada@example.com", "correcthorse1")
	require.NoError(t, err)

	deleted, err := repos.User.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)

	_, err = repos.User.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	hasher := auth.NewPasswordHasher(4)
	repos := postgres.NewRepositories(testDB.DB, hasher)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		testutil.NewUserBuilder().Build(t, testDB.DB)
	}

	users, err := repos.User.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}

	count, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
