package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/api/middleware"
	"github.com/wecantrust/donations-backend/api/responses"
	"github.com/wecantrust/donations-backend/api/validators"
	"github.com/wecantrust/donations-backend/internal/contact"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
)

// ContactController exposes the contact inbox.
type ContactController struct {
	svc  contact.Service
	logg *logger.Logger
}

func NewContactController(svc contact.Service, logg *logger.Logger) *ContactController {
	return &ContactController{svc: svc, logg: logg}
}

// Submit accepts a public contact form post.
func (c *ContactController) Submit(w http.ResponseWriter, r *http.Request) {
	var req contact.SubmitRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	resp, err := c.svc.Submit(r.Context(), req)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, resp)
}

func (c *ContactController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	resp, err := c.svc.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

func (c *ContactController) List(w http.ResponseWriter, r *http.Request) {
	page, limit := validators.PageParams(r)
	status := r.URL.Query().Get("status")

	resp, err := c.svc.List(r.Context(), status, page, limit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

func (c *ContactController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req contact.UpdateStatusRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var respondedBy *uuid.UUID
	if adminID, ok := middleware.UserIDFromContext(r.Context()); ok {
		respondedBy = &adminID
	}

	resp, err := c.svc.UpdateStatus(r.Context(), id, req, respondedBy)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

func (c *ContactController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.svc.Delete(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (c *ContactController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.svc.Overview(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, stats)
}

func parseMessageID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid message id")
	}
	return id, nil
}
