package handler

import (
	"net/http"
	"time"

	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/service"

	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetAnalyticsSummary handles GET /v1/orgs/{orgId}/analytics/summary
func (h *AnalyticsHandler) GetAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(ctx, organizationID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ExportWorkOrderReport handles GET /v1/orgs/{orgId}/reports/workorders
// Streams the report as a CSV attachment.
func (h *AnalyticsHandler) ExportWorkOrderReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	report, err := h.service.ExportReport(ctx, organizationID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "work order report exported",
		zap.String("organizationId", organizationID),
		zap.Int("bytes", len(report)),
	)

	filename := "workorders-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}
