package donations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
)

// ErrDuplicateReceiptNumber signals the generated receipt number lost the
// race against the unique index; callers retry with a fresh number.
var ErrDuplicateReceiptNumber = errors.New("duplicate receipt number")

// Repository exposes persistence helpers for donations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Donation, error)
	GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Donation, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, proof PaymentProof, receiptNumber string, now time.Time) (CompletionResult, error)
	MarkFailed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	SetReceiptArtifacts(ctx context.Context, id uuid.UUID, objectKey, verificationHash string) error
	MarkEmailSent(ctx context.Context, id uuid.UUID, messageID string) error
	ListCompletedByEmail(ctx context.Context, email string, page, limit int) ([]models.Donation, int64, error)
	ListByStatus(ctx context.Context, status enums.DonationStatus, page, limit int) ([]models.Donation, int64, error)
	ListMissingReceipts(ctx context.Context, limit int) ([]models.Donation, error)
}

// PaymentProof is the gateway evidence stored alongside a completion.
type PaymentProof struct {
	PaymentID string
	Signature string
}

// CompletionResult reports what MarkCompleted did.
type CompletionResult struct {
	// Updated is true when this call performed the pending->completed
	// transition. False means the row was already terminal.
	Updated  bool
	Donation *models.Donation
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a donations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).First(&donation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *repositoryImpl) GetByOrderID(ctx context.Context, orderID string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).First(&donation, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *repositoryImpl) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).First(&donation, "receipt_number = ?", receiptNumber).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

// MarkCompleted transitions a pending donation to completed and assigns the
// receipt number in the same statement. Re-invocations on an already
// completed row are a no-op; the stored receipt number is never replaced.
func (r *repositoryImpl) MarkCompleted(ctx context.Context, id uuid.UUID, proof PaymentProof, receiptNumber string, now time.Time) (CompletionResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, enums.DonationStatusPending).
		Updates(map[string]any{
			"status":            enums.DonationStatusCompleted,
			"payment_id":        proof.PaymentID,
			"payment_signature": proof.Signature,
			"receipt_number":    receiptNumber,
			"completed_at":      now,
			"updated_at":        now,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error, "receipt_number") {
			return CompletionResult{}, ErrDuplicateReceiptNumber
		}
		return CompletionResult{}, result.Error
	}

	donation, err := r.GetByID(ctx, id)
	if err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{
		Updated:  result.RowsAffected > 0,
		Donation: donation,
	}, nil
}

func (r *repositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, enums.DonationStatusPending).
		Updates(map[string]any{
			"status":     enums.DonationStatusFailed,
			"failed_at":  now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetReceiptArtifacts records the stored PDF location and verification hash
// and flips receipt_generated. Completed rows only.
func (r *repositoryImpl) SetReceiptArtifacts(ctx context.Context, id uuid.UUID, objectKey, verificationHash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, enums.DonationStatusCompleted).
		Updates(map[string]any{
			"receipt_object_key": objectKey,
			"verification_hash":  verificationHash,
			"receipt_generated":  true,
		}).Error
}

func (r *repositoryImpl) MarkEmailSent(ctx context.Context, id uuid.UUID, messageID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"email_sent":       true,
			"email_message_id": messageID,
		}).Error
}

func (r *repositoryImpl) ListCompletedByEmail(ctx context.Context, email string, page, limit int) ([]models.Donation, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("donor_email = ? AND status = ?", email, enums.DonationStatusCompleted)
	return listPage(query, page, limit)
}

func (r *repositoryImpl) ListByStatus(ctx context.Context, status enums.DonationStatus, page, limit int) ([]models.Donation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Donation{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return listPage(query, page, limit)
}

// ListMissingReceipts returns completed donations whose receipt pipeline has
// not finished, oldest first.
func (r *repositoryImpl) ListMissingReceipts(ctx context.Context, limit int) ([]models.Donation, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var rows []models.Donation
	err := r.db.WithContext(ctx).
		Where("status = ? AND (receipt_generated = ? OR email_sent = ?)", enums.DonationStatusCompleted, false, false).
		Order("completed_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func listPage(query *gorm.DB, page, limit int) ([]models.Donation, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Donation
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// isUniqueViolation matches both the Postgres error text and sqlite's, so
// the repo behaves the same under test.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, column) {
		return false
	}
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
