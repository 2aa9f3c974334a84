package service

import (
	"context"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"

	"go.uber.org/zap"
)

var ErrNoteNotFound = repo.ErrNoteNotFound

// NoteService handles maintenance notes on equipment. Private notes stay
// inside the owning team: admins browsing an asset from outside the team see
// public notes only, and authors keep edit rights over their own notes
// without the editany grant.
type NoteService struct {
	noteRepo      *repo.NoteRepository
	equipmentRepo *repo.EquipmentRepository
	auditRepo     *repo.AuditRepo
	session       *SessionService
	log           *logger.Logger
}

func NewNoteService(noteRepo *repo.NoteRepository, equipmentRepo *repo.EquipmentRepository, auditRepo *repo.AuditRepo, session *SessionService, log *logger.Logger) *NoteService {
	return &NoteService{
		noteRepo:      noteRepo,
		equipmentRepo: equipmentRepo,
		auditRepo:     auditRepo,
		session:       session,
		log:           log,
	}
}

func (s *NoteService) audit(ctx context.Context, organizationID, userID, action, entityID string, details map[string]interface{}) {
	if err := s.auditRepo.LogAction(ctx, organizationID, userID, action, "equipment_note", entityID, details); err != nil {
		s.log.Error(ctx, "failed to write audit log",
			logger.Module("note"),
			logger.Action("audit"),
			zap.String("audit_action", action),
			zap.Error(err),
		)
	}
}

// ListByEquipment retrieves the notes on a piece of equipment. Team members
// see everything; anyone else with the view grant sees public notes only.
// Permission: equipmentnote.view, scoped to the equipment's team.
func (s *NoteService) ListByEquipment(ctx context.Context, organizationID, userID, equipmentID string) ([]domain.EquipmentNote, error) {
	equipment, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return nil, err
	}

	orgCtx, err := s.session.ContextFor(ctx, userID, organizationID)
	if err != nil {
		return nil, err
	}

	if !s.session.Engine().Evaluate(authz.PermEquipmentNoteView, orgCtx, &authz.EntityContext{TeamID: equipment.TeamID}) {
		return nil, ErrEquipmentNotFound
	}

	includePrivate := orgCtx.IsTeamMember(equipment.TeamID)
	return s.noteRepo.ListByEquipment(ctx, organizationID, equipmentID, includePrivate)
}

// Create adds a note to a piece of equipment.
// Permission: equipmentnote.addpublic or equipmentnote.addprivate depending
// on the requested visibility, scoped to the equipment's team.
func (s *NoteService) Create(ctx context.Context, organizationID, userID, equipmentID string, req domain.CreateNoteRequest) (*domain.EquipmentNote, error) {
	equipment, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return nil, err
	}

	perm := authz.PermEquipmentNoteAddPublic
	if req.Visibility != nil && *req.Visibility == domain.NoteVisibilityPrivate {
		perm = authz.PermEquipmentNoteAddPrivate
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, perm, &authz.EntityContext{TeamID: equipment.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	note, err := s.noteRepo.Create(ctx, generateID(), organizationID, equipment.TeamID, equipmentID, userID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "equipmentnote.create", note.ID, map[string]interface{}{
		"equipment_id": equipmentID,
		"visibility":   string(note.Visibility),
	})

	return note, nil
}

// Update edits a note. The author always may; everyone else needs the
// editany grant.
// Permission: equipmentnote.editany, scoped to the note's team.
func (s *NoteService) Update(ctx context.Context, organizationID, userID, noteID string, req domain.UpdateNoteRequest) (*domain.EquipmentNote, error) {
	current, err := s.noteRepo.Get(ctx, organizationID, noteID)
	if err != nil {
		return nil, err
	}

	if current.CreatedBy != userID {
		allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentNoteEditAny, &authz.EntityContext{TeamID: current.TeamID})
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrForbidden
		}
	}

	note, err := s.noteRepo.Update(ctx, organizationID, noteID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "equipmentnote.update", noteID, nil)

	return note, nil
}

// Delete soft-deletes a note. Same rule as Update: author or deleteany.
// Permission: equipmentnote.deleteany, scoped to the note's team.
func (s *NoteService) Delete(ctx context.Context, organizationID, userID, noteID string) error {
	current, err := s.noteRepo.Get(ctx, organizationID, noteID)
	if err != nil {
		return err
	}

	if current.CreatedBy != userID {
		allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentNoteDeleteAny, &authz.EntityContext{TeamID: current.TeamID})
		if err != nil {
			return err
		}
		if !allowed {
			return ErrForbidden
		}
	}

	if err := s.noteRepo.SoftDelete(ctx, organizationID, noteID); err != nil {
		return err
	}

	s.audit(ctx, organizationID, userID, "equipmentnote.delete", noteID, nil)

	return nil
}

// AddImage attaches an uploaded image to a note.
// Permission: equipmentnote.uploadimages, scoped to the note's team.
func (s *NoteService) AddImage(ctx context.Context, organizationID, userID, noteID string, req domain.AddNoteImageRequest) (*domain.NoteImage, error) {
	current, err := s.noteRepo.Get(ctx, organizationID, noteID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentNoteUploadImages, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	image, err := s.noteRepo.AddImage(ctx, generateID(), organizationID, noteID, userID, req.URL)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "equipmentnote.image.add", noteID, nil)

	return image, nil
}

// ListImages retrieves the images attached to a note.
// Permission: equipmentnote.view, scoped to the note's team.
func (s *NoteService) ListImages(ctx context.Context, organizationID, userID, noteID string) ([]domain.NoteImage, error) {
	current, err := s.noteRepo.Get(ctx, organizationID, noteID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentNoteView, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNoteNotFound
	}

	return s.noteRepo.ListImages(ctx, organizationID, noteID)
}
