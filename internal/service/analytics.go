package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"
)

// featureError marks a denial caused by a missing plan feature. The engine
// folds feature gating into the same deny as role checks, so the service
// re-checks the feature to give the caller a useful error.
type featureError struct {
	Feature string
}

func (e *featureError) Error() string {
	return fmt.Sprintf("feature %q is not enabled for this organization", e.Feature)
}

// FeatureNotAvailable reports whether err is a missing-feature denial and
// returns the feature name.
func FeatureNotAvailable(err error) (string, bool) {
	var fe *featureError
	if errors.As(err, &fe) {
		return fe.Feature, true
	}
	return "", false
}

// AnalyticsService serves the fleet dashboard and report export, both gated
// behind premium plan features.
type AnalyticsService struct {
	equipmentRepo *repo.EquipmentRepository
	workOrderRepo *repo.WorkOrderRepository
	session       *SessionService
	log           *logger.Logger
}

func NewAnalyticsService(equipmentRepo *repo.EquipmentRepository, workOrderRepo *repo.WorkOrderRepository, session *SessionService, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		equipmentRepo: equipmentRepo,
		workOrderRepo: workOrderRepo,
		session:       session,
		log:           log,
	}
}

// authorize evaluates perm and distinguishes a feature denial from a role
// denial so handlers can answer FEATURE_NOT_AVAILABLE instead of FORBIDDEN.
func (s *AnalyticsService) authorize(ctx context.Context, userID, organizationID string, perm authz.Permission, feature string) error {
	orgCtx, err := s.session.ContextFor(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if s.session.Engine().Evaluate(perm, orgCtx, nil) {
		return nil
	}
	if !orgCtx.HasFeature(feature) {
		return &featureError{Feature: feature}
	}
	return ErrForbidden
}

// Summary computes the organization-wide fleet overview.
// Permission: analytics.view (requires the advanced_analytics feature).
func (s *AnalyticsService) Summary(ctx context.Context, organizationID, userID string) (*domain.AnalyticsSummary, error) {
	if err := s.authorize(ctx, userID, organizationID, authz.PermAnalyticsView, authz.FeatureAdvancedAnalytics); err != nil {
		return nil, err
	}

	equipmentByStatus, err := s.equipmentRepo.CountByStatus(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	workOrdersByStatus, err := s.workOrderRepo.CountByStatus(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	workOrdersByTeam, err := s.workOrderRepo.CountByTeam(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	priorityBreakdown, err := s.workOrderRepo.CountByPriority(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	summary := &domain.AnalyticsSummary{
		OrganizationID:     organizationID,
		EquipmentByStatus:  equipmentByStatus,
		WorkOrdersByStatus: workOrdersByStatus,
		WorkOrdersByTeam:   workOrdersByTeam,
		PriorityBreakdown:  priorityBreakdown,
	}
	for _, count := range equipmentByStatus {
		summary.EquipmentTotal += count
	}
	for status, count := range workOrdersByStatus {
		if !status.IsTerminal() {
			summary.WorkOrdersOpen += count
		}
	}

	return summary, nil
}

// ExportReport renders every work order in the organization as CSV.
// Permission: reports.export (requires the custom_reports feature).
func (s *AnalyticsService) ExportReport(ctx context.Context, organizationID, userID string) ([]byte, error) {
	if err := s.authorize(ctx, userID, organizationID, authz.PermReportsExport, authz.FeatureCustomReports); err != nil {
		return nil, err
	}

	rows, err := s.workOrderRepo.ListReportRows(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"work_order_id", "team_id", "equipment_id", "equipment_name",
		"title", "status", "priority", "created_by", "assignee_id",
		"created_at", "completed_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.WorkOrderID, row.TeamID, row.EquipmentID, row.EquipmentName,
			row.Title, row.Status, row.Priority, row.CreatedBy,
			derefString(row.AssigneeID), row.CreatedAt, derefString(row.CompletedAt),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
