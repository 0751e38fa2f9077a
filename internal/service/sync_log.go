package service

import (
	"context"

	"github.com/classpulse/classpulse-api/internal/models"
)

// SyncLogLister is the read surface handlers need over the sync audit trail.
// repository.SyncLogRepository satisfies it.
type SyncLogLister interface {
	List(ctx context.Context, limit int) ([]models.SyncLog, error)
	ListByCourse(ctx context.Context, courseID uint, limit int) ([]models.SyncLog, error)
}
