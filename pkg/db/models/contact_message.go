package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/pkg/enums"
)

// ContactMessage is an inbound message from the public contact form.
type ContactMessage struct {
	ID      uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name    string               `gorm:"column:name;not null"`
	Email   string               `gorm:"column:email;not null"`
	Phone   *string              `gorm:"column:phone"`
	Subject enums.ContactSubject `gorm:"column:subject;type:text;not null;default:'general'"`
	Message string               `gorm:"column:message;not null"`
	Status  enums.ContactStatus  `gorm:"column:status;type:text;not null;default:'new'"`

	AdminNotes  *string    `gorm:"column:admin_notes"`
	RespondedBy *uuid.UUID `gorm:"column:responded_by;type:uuid"`

	ResolvedAt *time.Time `gorm:"column:resolved_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
