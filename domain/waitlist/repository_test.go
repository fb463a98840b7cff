package waitlist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akeren/waitlist-service/internal/models"
	apperrors "github.com/akeren/waitlist-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWaitlistRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWaitlistRepository(newTestDB(t))

	t.Run("empty store", func(t *testing.T) {
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		entry, err := repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		entry, err := repo.Create(ctx, &models.WaitlistEntry{Email: "a@b.com"})
		require.NoError(t, err)

		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())

		found, err := repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, entry.ID, found.ID)
	})

	t.Run("lookup is exact", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "A@B.COM")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate insert is a conflict", func(t *testing.T) {
		_, err := repo.Create(ctx, &models.WaitlistEntry{Email: "a@b.com"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("closed database is a database error", func(t *testing.T) {
		db := newTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		_, err = NewWaitlistRepository(db).Count(ctx)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabaseError))
	})
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: waitlist_entries.email")))

	// Failures that merely mention the words are not conflicts: nothing was written.
	assert.False(t, isDuplicateKey(errors.New("duplicate column name: email")))
	assert.False(t, isDuplicateKey(errors.New("could not serialize access due to concurrent update: conflict")))
	assert.False(t, isDuplicateKey(errors.New("NOT NULL constraint failed: waitlist_entries.email")))
}
