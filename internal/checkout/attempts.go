package checkout

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lfbag/storefront/pkg/db/models"
	"github.com/lfbag/storefront/pkg/pagination"
)

// AttemptRecorder persists the audit row for a submission and reads a
// session's history back.
type AttemptRecorder interface {
	Record(ctx context.Context, attempt *models.CheckoutAttempt) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error)
}

// AttemptRepository stores checkout attempts with GORM.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) (*AttemptRepository, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	return &AttemptRepository{db: db}, nil
}

func (r *AttemptRepository) Record(ctx context.Context, attempt *models.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// ListBySession returns a session's attempts, newest first.
func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	var attempts []models.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&attempts).Error
	return attempts, err
}
