package inmemdb

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core/user"
)

func Test_userRepository_CreateUser_assignsID(t *testing.T) {
	repo := NewUserRepository(NewDB())
	ctx := context.Background()

	usr, err := repo.CreateUser(ctx, user.User{Username: "amina", Email: "amina@darasa.app"})
	require.NoError(t, err)
	require.NotEmpty(t, usr.ID)
	_, err = uuid.Parse(usr.ID)
	assert.NoError(t, err, "generated id must be a uuid")

	got, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, usr.Username, got.Username)

	// provided ids are kept as-is
	usr2, err := repo.CreateUser(ctx, user.User{ID: "fixed-id", Username: "bakari"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", usr2.ID)
}
