package postgres_test

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository/postgres"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

func tokenHash(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

func TestIntegrationRefreshTokenRepo_Rotate(t *testing.T) {
	db := SetupTestDB(t)
	defer db.Cleanup(t)

	repo := postgres.NewRefreshTokenRepo(db.Pool)
	ctx := context.Background()

	t.Run("rotates once", func(t *testing.T) {
		db.Truncate(t, "credentials")
		cred := createTestCredential(t, db, "alice")
		device := createTestDevice(t, db, cred.ID, "laptop")
		expires := time.Now().UTC().Add(time.Hour)

		old := entity.NewRefreshToken(cred.ID, device.ID, tokenHash("old"), expires)
		require.NoError(t, repo.Create(ctx, old))

		next := entity.NewRefreshToken(cred.ID, device.ID, tokenHash("next"), expires)
		require.NoError(t, repo.Rotate(ctx, old.ID, next, time.Now().UTC()))

		stored, err := repo.GetByHash(ctx, tokenHash("old"))
		require.NoError(t, err)
		assert.True(t, stored.IsRevoked())
		assert.Equal(t, next.ID, *stored.ReplacedByID)

		again := entity.NewRefreshToken(cred.ID, device.ID, tokenHash("again"), expires)
		err = repo.Rotate(ctx, old.ID, again, time.Now().UTC())
		assert.ErrorIs(t, err, domain.ErrTokenRevoked)

		_, err = repo.GetByHash(ctx, tokenHash("again"))
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("delete expired keeps live tokens", func(t *testing.T) {
		db.Truncate(t, "credentials")
		cred := createTestCredential(t, db, "alice")
		device := createTestDevice(t, db, cred.ID, "laptop")

		live := entity.NewRefreshToken(cred.ID, device.ID, tokenHash("live"), time.Now().UTC().Add(time.Hour))
		dead := entity.NewRefreshToken(cred.ID, device.ID, tokenHash("dead"), time.Now().UTC().Add(-time.Hour))
		require.NoError(t, repo.Create(ctx, live))
		require.NoError(t, repo.Create(ctx, dead))

		n, err := repo.DeleteExpired(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.GetByHash(ctx, tokenHash("live"))
		assert.NoError(t, err)
	})
}
