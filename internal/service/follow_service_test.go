package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService(t *testing.T) {
	db := testutil.NewTestDB(t)
	follows := repository.NewFollowRepository(db)
	svc := NewFollowService(repository.NewUserRepository(db), follows)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	anna := testutil.CreateUser(t, db, "anna")

	edges := func() int64 {
		var n int64
		require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
		return n
	}

	t.Run("self follow is a silent no-op", func(t *testing.T) {
		require.NoError(t, svc.Follow(ctx, leo, "leo"))
		assert.Zero(t, edges())
	})

	t.Run("follow is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Follow(ctx, anna, "leo"))
		require.NoError(t, svc.Follow(ctx, anna, "leo"))
		assert.Equal(t, int64(1), edges())

		exists, err := follows.Exists(ctx, anna.ID, leo.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unfollow is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, anna, "leo"))
		require.NoError(t, svc.Unfollow(ctx, anna, "leo"))
		assert.Zero(t, edges())
	})

	t.Run("unknown target", func(t *testing.T) {
		assertCode(t, svc.Follow(ctx, anna, "ghost"), models.CodeNotFound)
		assertCode(t, svc.Unfollow(ctx, anna, "ghost"), models.CodeNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		assertCode(t, svc.Follow(ctx, nil, "leo"), models.CodeUnauthorized)
		assertCode(t, svc.Unfollow(ctx, nil, "leo"), models.CodeUnauthorized)
	})
}
