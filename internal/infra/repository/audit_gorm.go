package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type AuditGormRepository struct {
	db *gorm.DB
}

func NewAuditGormRepository(db *gorm.DB) *AuditGormRepository {
	return &AuditGormRepository{db: db}
}

func (r *AuditGormRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return classify(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *AuditGormRepository) ListAuditLogs(
	ctx context.Context,
	f audit.Filter,
) ([]models.AuditLog, int64, error) {

	q := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at <= ?", f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Offset(f.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, classify(err)
	}

	return logs, total, nil
}

var _ audit.Store = (*AuditGormRepository)(nil)
