package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-service/internal/models"
	apperrors "github.com/akeren/waitlist-service/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// FindByEmail returns the entry for the exact email, or nil when there is none.
	FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	// Create inserts a new entry. A unique-email violation comes back as a conflict AppError.
	Create(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	// Count returns the number of entries.
	Count(ctx context.Context) (int64, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry

	// Find with Limit instead of First: a miss is the common case and must not log as an error.
	result := wr.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, apperrors.NewDatabaseError("failed to look up waitlist entry", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, nil
	}

	return &entry, nil
}

func (wr *waitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to create waitlist entry", err)
	}

	return entry, nil
}

func (wr *waitlistRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := wr.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	return count, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
