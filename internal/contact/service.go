package contact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/internal/mailer"
	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/tasks"
)

// allowedTransitions encodes the handling workflow. Closed is terminal.
var allowedTransitions = map[enums.ContactStatus][]enums.ContactStatus{
	enums.ContactStatusNew:        {enums.ContactStatusInProgress, enums.ContactStatusResolved, enums.ContactStatusClosed},
	enums.ContactStatusInProgress: {enums.ContactStatusResolved, enums.ContactStatusClosed},
	enums.ContactStatusResolved:   {enums.ContactStatusClosed},
	enums.ContactStatusClosed:     {},
}

func transitionAllowed(from, to enums.ContactStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Service defines contact inbox operations.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*MessageResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*MessageResponse, error)
	List(ctx context.Context, status string, page, limit int) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, respondedBy *uuid.UUID) (*MessageResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Overview(ctx context.Context) (*Stats, error)
}

// ServiceParams wires contact service dependencies. Dispatcher and Runner
// are optional; without them submissions simply skip the acknowledgement.
type ServiceParams struct {
	Repo       Repository
	Dispatcher mailer.Dispatcher
	Runner     *tasks.Runner
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	dispatcher mailer.Dispatcher
	runner     *tasks.Runner
	logg       *logger.Logger
}

// NewService validates dependencies and returns a contact service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "contact repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:       params.Repo,
		dispatcher: params.Dispatcher,
		runner:     params.Runner,
		logg:       params.Logger,
	}, nil
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*MessageResponse, error) {
	subject, err := enums.ParseContactSubject(req.Subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subject")
	}

	message := &models.ContactMessage{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: subject,
		Message: req.Message,
		Status:  enums.ContactStatusNew,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist contact message")
	}

	s.logg.Info(s.logg.WithField(ctx, "contact_id", message.ID.String()), "contact message received")
	s.enqueueAcknowledgement(message)

	resp := toResponse(message)
	return &resp, nil
}

// enqueueAcknowledgement thanks the sender off the request path. Delivery is
// best effort.
func (s *service) enqueueAcknowledgement(message *models.ContactMessage) {
	if s.dispatcher == nil || s.runner == nil {
		return
	}
	ack := mailer.ContactAcknowledgement{
		Name:    message.Name,
		Email:   message.Email,
		Subject: message.Subject.String(),
	}
	dispatcher := s.dispatcher
	s.runner.Go("contact-acknowledgement", func(ctx context.Context) error {
		_, err := dispatcher.SendContactAcknowledgement(ctx, ack)
		return err
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MessageResponse, error) {
	message, err := s.loadMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(message)
	return &resp, nil
}

func (s *service) List(ctx context.Context, status string, page, limit int) (*ListResult, error) {
	var filter enums.ContactStatus
	if status != "" {
		parsed, err := enums.ParseContactStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter = parsed
	}

	rows, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contact messages")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return &ListResult{Items: toResponses(rows), Page: page, Limit: limit, Total: total}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, respondedBy *uuid.UUID) (*MessageResponse, error) {
	target, err := enums.ParseContactStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	message, err := s.loadMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(message.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]string{"from": message.Status.String(), "to": target.String()})
	}

	// Same-status requests still persist when they carry fresh notes.
	if message.Status != target || req.AdminNotes != nil {
		now := time.Now().UTC()
		if err := s.repo.UpdateStatus(ctx, id, target, req.AdminNotes, respondedBy, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contact status")
		}
		message.Status = target
		message.UpdatedAt = now
		if req.AdminNotes != nil {
			message.AdminNotes = req.AdminNotes
		}
		if respondedBy != nil {
			message.RespondedBy = respondedBy
		}
		if target == enums.ContactStatusResolved {
			message.ResolvedAt = &now
		}
	}

	resp := toResponse(message)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contact message")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "contact message not found")
	}
	return nil
}

func (s *service) Overview(ctx context.Context) (*Stats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count by status")
	}
	bySubject, err := s.repo.CountBySubject(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count by subject")
	}

	var total int64
	for _, count := range byStatus {
		total += count
	}
	return &Stats{Total: total, ByStatus: byStatus, BySubject: bySubject}, nil
}

func (s *service) loadMessage(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	message, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact message")
	}
	return message, nil
}
