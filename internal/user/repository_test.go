package user_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/teashop/internal/db/dbtest"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

func TestUserRepository_Create(t *testing.T) {
	repo := user.NewRepository(dbtest.Open(t))

	testUser := user.User{
		Email:        "test.create@example.com",
		PasswordHash: "hashed_password",
		Name:         "Test User",
	}

	createdID, err := repo.Create(context.Background(), &testUser)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, createdID)
	require.Equal(t, testUser.ID, createdID)
	require.Equal(t, user.RoleUser, testUser.Role)
	require.False(t, testUser.CreatedAt.IsZero())
}

func TestUserRepository_Create_EmailExists(t *testing.T) {
	repo := user.NewRepository(dbtest.Open(t))

	user1 := user.User{Email: "dup@example.com", PasswordHash: "hash", Name: "One"}
	user2 := user.User{Email: "dup@example.com", PasswordHash: "hash", Name: "Two"}

	_, err := repo.Create(context.Background(), &user1)
	require.NoError(t, err)

	createdID, err := repo.Create(context.Background(), &user2)
	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Equal(t, uuid.Nil, createdID)
}

func TestUserRepository_GetByID(t *testing.T) {
	repo := user.NewRepository(dbtest.Open(t))

	avatar := "https://example.com/a.png"
	created := user.User{
		Email:        "getbyid@example.com",
		PasswordHash: "hashed_password",
		Name:         "Admin",
		Role:         user.RoleAdmin,
		Avatar:       &avatar,
	}
	_, err := repo.Create(context.Background(), &created)
	require.NoError(t, err)

	found, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, created.Email, found.Email)
	require.Equal(t, created.PasswordHash, found.PasswordHash)
	require.Equal(t, user.RoleAdmin, found.Role)
	require.NotNil(t, found.Avatar)
	require.Equal(t, avatar, *found.Avatar)

	missing, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, missing)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo := user.NewRepository(dbtest.Open(t))

	created := user.User{Email: "byemail@example.com", PasswordHash: "hash", Name: "By Email"}
	_, err := repo.Create(context.Background(), &created)
	require.NoError(t, err)

	found, err := repo.GetByEmail(context.Background(), "byemail@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Nil(t, found.Avatar)

	missing, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, missing)
}
