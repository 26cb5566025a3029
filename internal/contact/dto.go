package contact

import (
	"time"

	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
)

// SubmitRequest is the public contact form payload.
type SubmitRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Subject string  `json:"subject" validate:"required,oneof=general donation volunteer program partnership"`
	Message string  `json:"message" validate:"required,min=10,max=5000"`
}

// UpdateStatusRequest moves a message through its handling workflow. Notes
// replace any previous notes when present.
type UpdateStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=new in-progress resolved closed"`
	AdminNotes *string `json:"admin_notes,omitempty" validate:"omitempty,max=2000"`
}

// MessageResponse is the public shape of a contact message.
type MessageResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Phone       *string              `json:"phone,omitempty"`
	Subject     enums.ContactSubject `json:"subject"`
	Message     string               `json:"message"`
	Status      enums.ContactStatus  `json:"status"`
	AdminNotes  *string              `json:"admin_notes,omitempty"`
	RespondedBy *uuid.UUID           `json:"responded_by,omitempty"`
	ResolvedAt  *time.Time           `json:"resolved_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ListResult wraps a message page with pagination totals.
type ListResult struct {
	Items []MessageResponse `json:"items"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
}

// Stats summarizes the contact inbox.
type Stats struct {
	Total     int64                          `json:"total"`
	ByStatus  map[enums.ContactStatus]int64  `json:"by_status"`
	BySubject map[enums.ContactSubject]int64 `json:"by_subject"`
}

func toResponse(m *models.ContactMessage) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Subject:     m.Subject,
		Message:     m.Message,
		Status:      m.Status,
		AdminNotes:  m.AdminNotes,
		RespondedBy: m.RespondedBy,
		ResolvedAt:  m.ResolvedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toResponses(rows []models.ContactMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	return out
}
