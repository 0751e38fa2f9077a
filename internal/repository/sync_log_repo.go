package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/models"
)

// SyncLogRepository reads the audit trail of reconcile passes.
type SyncLogRepository interface {
	List(ctx context.Context, limit int) ([]models.SyncLog, error)
	ListByCourse(ctx context.Context, courseID uint, limit int) ([]models.SyncLog, error)
}

type syncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository instantiates the repository.
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) List(ctx context.Context, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.SyncLog
	err := r.db.WithContext(ctx).
		Order("synced_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *syncLogRepository) ListByCourse(ctx context.Context, courseID uint, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.SyncLog
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("synced_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
