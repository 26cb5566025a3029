package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
)

// Repository exposes persistence helpers for contact messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, message *models.ContactMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error)
	List(ctx context.Context, status enums.ContactStatus, page, limit int) ([]models.ContactMessage, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ContactStatus, notes *string, respondedBy *uuid.UUID, now time.Time) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context) (map[enums.ContactStatus]int64, error)
	CountBySubject(ctx context.Context) (map[enums.ContactSubject]int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a contact repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, message *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	var message models.ContactMessage
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *repositoryImpl) List(ctx context.Context, status enums.ContactStatus, page, limit int) ([]models.ContactMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.ContactMessage{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ContactMessage
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ContactStatus, notes *string, respondedBy *uuid.UUID, now time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if notes != nil {
		updates["admin_notes"] = *notes
	}
	if respondedBy != nil {
		updates["responded_by"] = *respondedBy
	}
	if status == enums.ContactStatusResolved {
		updates["resolved_at"] = now
	}
	return r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.ContactMessage{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CountByStatus(ctx context.Context) (map[enums.ContactStatus]int64, error) {
	var rows []struct {
		Status enums.ContactStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[enums.ContactStatus]int64{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repositoryImpl) CountBySubject(ctx context.Context) (map[enums.ContactSubject]int64, error) {
	var rows []struct {
		Subject enums.ContactSubject
		Count   int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Select("subject, count(*) as count").
		Group("subject").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[enums.ContactSubject]int64{}
	for _, row := range rows {
		counts[row.Subject] = row.Count
	}
	return counts, nil
}
