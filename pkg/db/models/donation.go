package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/pkg/enums"
)

// Donation is a single donation attempt tied to one gateway order.
// ReceiptNumber is assigned exactly once, on the first transition to completed.
type Donation struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DonorName    string               `gorm:"column:donor_name;not null"`
	DonorEmail   string               `gorm:"column:donor_email;not null"`
	DonorPhone   *string              `gorm:"column:donor_phone"`
	DonorAddress *string              `gorm:"column:donor_address"`
	DonorPAN     *string              `gorm:"column:donor_pan"`
	Amount       int64                `gorm:"column:amount;not null"`
	Purpose      string               `gorm:"column:purpose;not null;default:'General Donation'"`
	Currency     string               `gorm:"column:currency;not null;default:'INR'"`
	Status       enums.DonationStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	OrderID          string  `gorm:"column:order_id;not null;uniqueIndex"`
	PaymentID        *string `gorm:"column:payment_id"`
	PaymentSignature *string `gorm:"column:payment_signature"`

	ReceiptNumber    *string `gorm:"column:receipt_number;uniqueIndex"`
	ReceiptGenerated bool    `gorm:"column:receipt_generated;not null;default:false"`
	ReceiptObjectKey *string `gorm:"column:receipt_object_key"`
	VerificationHash *string `gorm:"column:verification_hash"`

	EmailSent      bool    `gorm:"column:email_sent;not null;default:false"`
	EmailMessageID *string `gorm:"column:email_message_id"`

	Notes *string `gorm:"column:notes"`

	CompletedAt *time.Time `gorm:"column:completed_at"`
	FailedAt    *time.Time `gorm:"column:failed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Donation) TableName() string {
	return "donations"
}
