package waitlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/internal/models"
	apperrors "github.com/akeren/waitlist-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestWaitlistService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockWaitlistRepository(ctrl)
	logger := log.NewLoggerWithJSONOutput()
	service := NewWaitlistService(logger, mockRepo)

	t.Run("invalid email never reaches the repository", func(t *testing.T) {
		for _, email := range []string{"", "not-an-email", "a@", "@b.com", "a b@c.com"} {
			result, err := service.Register(context.Background(), email)

			require.Error(t, err, email)
			assert.Nil(t, result)
			assert.True(t, IsValidationError(err), email)
			assert.Equal(t, MsgInvalidEmail, apperrors.GetHumanReadableMessage(err))
			assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
		}
	})

	t.Run("successful registration", func(t *testing.T) {
		createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		mockRepo.EXPECT().
			FindByEmail(gomock.Any(), "a@b.com").
			Return(nil, nil)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
				entry.ID = "entry-1"
				entry.CreatedAt = createdAt
				return entry, nil
			})

		result, err := service.Register(context.Background(), "a@b.com")

		require.NoError(t, err)
		assert.Equal(t, MsgRegistered, result.Message)
		assert.Equal(t, "entry-1", result.Entry.ID)
		assert.Equal(t, "a@b.com", result.Entry.Email)
		assert.Equal(t, "2024-03-01T12:00:00Z", result.Entry.CreatedAt)
	})

	t.Run("email is stored verbatim", func(t *testing.T) {
		mockRepo.EXPECT().
			FindByEmail(gomock.Any(), "Mixed.Case@Example.COM").
			Return(nil, nil)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
				assert.Equal(t, "Mixed.Case@Example.COM", entry.Email)
				return entry, nil
			})

		_, err := service.Register(context.Background(), "Mixed.Case@Example.COM")
		require.NoError(t, err)
	})

	t.Run("existing email is a duplicate", func(t *testing.T) {
		mockRepo.EXPECT().
			FindByEmail(gomock.Any(), "a@b.com").
			Return(&models.WaitlistEntry{ID: "entry-1", Email: "a@b.com"}, nil)

		result, err := service.Register(context.Background(), "a@b.com")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, IsDuplicateError(err))
		assert.True(t, errors.Is(err, ErrAlreadyOnWaitlist))
		assert.Equal(t, MsgAlreadyOnWaitlist, apperrors.GetHumanReadableMessage(err))
		assert.Equal(t, 409, apperrors.HTTPStatusCode(err))
	})

	t.Run("unique violation on insert is a duplicate", func(t *testing.T) {
		mockRepo.EXPECT().
			FindByEmail(gomock.Any(), "race@b.com").
			Return(nil, nil)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewConflictError("waitlist entry with this email already exists", errors.New("UNIQUE constraint failed")))

		_, err := service.Register(context.Background(), "race@b.com")

		require.Error(t, err)
		assert.True(t, IsDuplicateError(err))
		assert.False(t, IsSystemError(err))
	})

	t.Run("lookup failure is a system error", func(t *testing.T) {
		mockRepo.EXPECT().
			FindByEmail(gomock.Any(), "a@b.com").
			Return(nil, apperrors.NewDatabaseError("failed to look up waitlist entry", errors.New("connection refused")))

		_, err := service.Register(context.Background(), "a@b.com")

		require.Error(t, err)
		assert.True(t, IsSystemError(err))
		assert.Equal(t, MsgRegisterFailed, apperrors.GetHumanReadableMessage(err))
		assert.Equal(t, 500, apperrors.HTTPStatusCode(err))
	})

	t.Run("insert failure is a system error", func(t *testing.T) {
		mockRepo.EXPECT().
			FindByEmail(gomock.Any(), "a@b.com").
			Return(nil, nil)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewDatabaseError("unable to create waitlist entry", errors.New("disk full")))

		_, err := service.Register(context.Background(), "a@b.com")

		require.Error(t, err)
		assert.True(t, IsSystemError(err))
		assert.NotContains(t, apperrors.GetHumanReadableMessage(err), "disk full")
	})
}

func TestWaitlistService_Count(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockWaitlistRepository(ctrl)
	service := NewWaitlistService(log.NewLoggerWithJSONOutput(), mockRepo)

	t.Run("returns repository count", func(t *testing.T) {
		mockRepo.EXPECT().Count(gomock.Any()).Return(int64(3), nil)

		count, err := service.Count(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo.EXPECT().Count(gomock.Any()).Return(int64(0), errors.New("connection refused"))

		count, err := service.Count(context.Background())

		require.Error(t, err)
		assert.Zero(t, count)
		assert.True(t, IsSystemError(err))
		assert.Equal(t, MsgCountFailed, apperrors.GetHumanReadableMessage(err))
	})
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsValidationError(NewValidationError(MsgInvalidEmail, nil)))
	assert.True(t, IsDuplicateError(NewDuplicateError(nil)))
	assert.True(t, IsSystemError(NewSystemError(MsgRegisterFailed, errors.New("boom"))))
	assert.False(t, IsSystemError(nil))

	cause := errors.New("driver detail")
	err := NewDuplicateError(cause)
	assert.True(t, errors.Is(err, cause))
}
