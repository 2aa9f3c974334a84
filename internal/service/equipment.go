package service

import (
	"context"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"

	"go.uber.org/zap"
)

var ErrEquipmentNotFound = repo.ErrEquipmentNotFound

// EquipmentService handles equipment assets. All access flows through
// team-scoped permissions: an admin-or-above org role grants everything, a
// team role grants access within that team only.
type EquipmentService struct {
	equipmentRepo *repo.EquipmentRepository
	auditRepo     *repo.AuditRepo
	session       *SessionService
	log           *logger.Logger
}

func NewEquipmentService(equipmentRepo *repo.EquipmentRepository, auditRepo *repo.AuditRepo, session *SessionService, log *logger.Logger) *EquipmentService {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		auditRepo:     auditRepo,
		session:       session,
		log:           log,
	}
}

func (s *EquipmentService) audit(ctx context.Context, organizationID, userID, action, entityID string, details map[string]interface{}) {
	if err := s.auditRepo.LogAction(ctx, organizationID, userID, action, "equipment", entityID, details); err != nil {
		s.log.Error(ctx, "failed to write audit log",
			logger.Module("equipment"),
			logger.Action("audit"),
			zap.String("audit_action", action),
			zap.Error(err),
		)
	}
}

// List retrieves equipment visible to the user. Members without an org-wide
// grant see only equipment of teams they belong to; the listing narrows to
// those teams instead of failing.
func (s *EquipmentService) List(ctx context.Context, organizationID, userID string, params repo.ListEquipmentParams) ([]domain.Equipment, string, error) {
	orgCtx, err := s.session.ContextFor(ctx, userID, organizationID)
	if err != nil {
		return nil, "", err
	}
	params.OrganizationID = organizationID

	engine := s.session.Engine()

	// Org-wide grant: no narrowing needed
	if engine.Evaluate(authz.PermEquipmentView, orgCtx, nil) {
		return s.equipmentRepo.List(ctx, params)
	}

	if params.TeamID != nil {
		if !engine.Evaluate(authz.PermEquipmentView, orgCtx, &authz.EntityContext{TeamID: *params.TeamID}) {
			return nil, "", ErrForbidden
		}
		return s.equipmentRepo.List(ctx, params)
	}

	// No team filter requested: aggregate over the user's own teams
	var items []domain.Equipment
	for _, teamID := range orgCtx.TeamIDs() {
		if !engine.Evaluate(authz.PermEquipmentView, orgCtx, &authz.EntityContext{TeamID: teamID}) {
			continue
		}
		teamParams := params
		teamParams.TeamID = &teamID
		teamItems, _, err := s.equipmentRepo.List(ctx, teamParams)
		if err != nil {
			return nil, "", err
		}
		items = append(items, teamItems...)
	}

	return items, "", nil
}

// Get retrieves one piece of equipment.
// Permission: equipment.view, scoped to the equipment's team.
func (s *EquipmentService) Get(ctx context.Context, organizationID, userID, equipmentID string) (*domain.Equipment, error) {
	equipment, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentView, &authz.EntityContext{TeamID: equipment.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		// Hide existence from users outside the team
		return nil, ErrEquipmentNotFound
	}

	return equipment, nil
}

// Create registers a new asset in a team.
// Permission: equipment.create, scoped to the target team.
func (s *EquipmentService) Create(ctx context.Context, organizationID, userID string, req domain.CreateEquipmentRequest) (*domain.Equipment, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentCreate, &authz.EntityContext{TeamID: req.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	equipment, err := s.equipmentRepo.Create(ctx, generateID(), organizationID, userID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "equipment.create", equipment.ID, map[string]interface{}{
		"team_id": equipment.TeamID,
	})

	return equipment, nil
}

// Update edits an asset.
// Permission: equipment.edit, scoped to the equipment's team.
func (s *EquipmentService) Update(ctx context.Context, organizationID, userID, equipmentID string, req domain.UpdateEquipmentRequest) (*domain.Equipment, error) {
	current, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentEdit, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	equipment, err := s.equipmentRepo.Update(ctx, organizationID, equipmentID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "equipment.update", equipmentID, nil)

	return equipment, nil
}

// Delete soft-deletes an asset.
// Permission: equipment.delete, scoped to the equipment's team.
func (s *EquipmentService) Delete(ctx context.Context, organizationID, userID, equipmentID string) error {
	current, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentDelete, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.equipmentRepo.SoftDelete(ctx, organizationID, equipmentID); err != nil {
		return err
	}

	s.audit(ctx, organizationID, userID, "equipment.delete", equipmentID, nil)

	return nil
}

// AddImage attaches an uploaded image to an asset.
// Permission: equipment.addimages, scoped to the equipment's team.
func (s *EquipmentService) AddImage(ctx context.Context, organizationID, userID, equipmentID string, req domain.AddEquipmentImageRequest) (*domain.EquipmentImage, error) {
	current, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentAddImages, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	image, err := s.equipmentRepo.AddImage(ctx, generateID(), organizationID, equipmentID, userID, req.URL)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "equipment.image.add", equipmentID, nil)

	return image, nil
}

// ListImages retrieves the images attached to an asset.
// Permission: equipment.view, scoped to the equipment's team.
func (s *EquipmentService) ListImages(ctx context.Context, organizationID, userID, equipmentID string) ([]domain.EquipmentImage, error) {
	current, err := s.equipmentRepo.Get(ctx, organizationID, equipmentID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermEquipmentView, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrEquipmentNotFound
	}

	return s.equipmentRepo.ListImages(ctx, organizationID, equipmentID)
}
