package handler

import (
	"net/http"

	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NoteHandler struct {
	service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func noteID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "noteId")
	if id == "" {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidParameter, "noteId is required")
		return "", false
	}
	return id, true
}

// ListEquipmentNotes handles GET /v1/orgs/{orgId}/equipment/{equipmentId}/notes
func (h *NoteHandler) ListEquipmentNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	eqID, ok := equipmentID(w, r)
	if !ok {
		return
	}

	notes, err := h.service.ListByEquipment(ctx, organizationID, userID, eqID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, notes, "")
}

// CreateEquipmentNote handles POST /v1/orgs/{orgId}/equipment/{equipmentId}/notes
func (h *NoteHandler) CreateEquipmentNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	eqID, ok := equipmentID(w, r)
	if !ok {
		return
	}

	var req domain.CreateNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.service.Create(ctx, organizationID, userID, eqID, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "equipment note created",
		zap.String("organizationId", organizationID),
		zap.String("equipmentId", eqID),
		zap.String("noteId", note.ID),
		zap.String("visibility", string(note.Visibility)),
	)

	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /v1/orgs/{orgId}/notes/{noteId}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.service.Update(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "note updated",
		zap.String("organizationId", organizationID),
		zap.String("noteId", id),
	)

	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /v1/orgs/{orgId}/notes/{noteId}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, organizationID, userID, id); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "note deleted",
		zap.String("organizationId", organizationID),
		zap.String("noteId", id),
	)

	w.WriteHeader(http.StatusNoContent)
}

// AddNoteImage handles POST /v1/orgs/{orgId}/notes/{noteId}/images
func (h *NoteHandler) AddNoteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req domain.AddNoteImageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	image, err := h.service.AddImage(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "note image added",
		zap.String("organizationId", organizationID),
		zap.String("noteId", id),
	)

	writeJSON(w, http.StatusCreated, image)
}

// ListNoteImages handles GET /v1/orgs/{orgId}/notes/{noteId}/images
func (h *NoteHandler) ListNoteImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	images, err := h.service.ListImages(ctx, organizationID, userID, id)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, images, "")
}
