package main

import (
	"context"
	"net/http"
	"time"

	"fleetdesk-api/internal/auth"
	"fleetdesk-api/internal/config"
	"fleetdesk-api/internal/http/docs"
	"fleetdesk-api/internal/http/handler"
	"fleetdesk-api/internal/http/middleware"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/ratelimit"
	"fleetdesk-api/internal/repo"
	"fleetdesk-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RouterDeps holds everything buildRouter needs to assemble the HTTP surface.
type RouterDeps struct {
	Cfg             *config.Config
	Log             *logger.Logger
	Resolver        *auth.KeyResolver
	IdempotencyRepo *repo.IdempotencyRepo
	RateLimiter     *ratelimit.RedisRateLimiter
	Metrics         *telemetry.Metrics
	Pool            *pgxpool.Pool // Needed for the readiness check and debug handler

	// Handlers
	OrganizationHandler *handler.OrganizationHandler
	TeamHandler         *handler.TeamHandler
	EquipmentHandler    *handler.EquipmentHandler
	WorkOrderHandler    *handler.WorkOrderHandler
	NoteHandler         *handler.NoteHandler
	AnalyticsHandler    *handler.AnalyticsHandler
	PermissionsHandler  *handler.PermissionsHandler
	DebugHandler        *handler.DebugHandler
}

// buildRouter assembles the chi.Router with all middlewares and routes.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pool == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready","note":"pool is nil"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Pool.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: database unavailable", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	// Debug routes (dev-only)
	if deps.Cfg.AppEnv == "dev" || deps.Cfg.AppEnv == "development" {
		r.Route("/debug", func(r chi.Router) {
			if deps.DebugHandler != nil {
				r.With(auth.AuthMiddleware(deps.Resolver)).Get("/auth", deps.DebugHandler.GetAuthDebug)
				r.With(auth.AuthMiddleware(deps.Resolver)).Get("/auth/orgs/{orgId}", deps.DebugHandler.GetAuthDebugWithOrganization)
				r.Get("/db/ping", deps.DebugHandler.PingDB)
			}
		})
	}

	// Protected routes with organization isolation
	r.Route("/v1/orgs/{orgId}", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(deps.Resolver))
		r.Use(middleware.OrganizationMiddleware)
		r.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerOrgPerMin))

		idempotent := middleware.IdempotencyMiddleware(deps.IdempotencyRepo)

		// Organization settings and roster
		if deps.OrganizationHandler != nil {
			r.Get("/", deps.OrganizationHandler.GetOrganization)
			r.With(idempotent).Patch("/", deps.OrganizationHandler.UpdateOrganization)
			r.Delete("/", deps.OrganizationHandler.DeleteOrganization)
			r.Get("/features", deps.OrganizationHandler.ListFeatures)
			r.Route("/members", func(r chi.Router) {
				r.Get("/", deps.OrganizationHandler.ListMembers)
				r.With(idempotent).Post("/", deps.OrganizationHandler.InviteMember)
				r.Route("/{userId}", func(r chi.Router) {
					r.With(idempotent).Patch("/", deps.OrganizationHandler.UpdateMember)
					r.Delete("/", deps.OrganizationHandler.RemoveMember)
				})
			})
		}

		// Capability sets
		if deps.PermissionsHandler != nil {
			r.Get("/permissions", deps.PermissionsHandler.GetPermissions)
		}

		// Teams
		if deps.TeamHandler != nil {
			r.Route("/teams", func(r chi.Router) {
				r.Get("/", deps.TeamHandler.ListTeams)
				r.With(idempotent).Post("/", deps.TeamHandler.CreateTeam)
				r.Route("/{teamId}", func(r chi.Router) {
					r.Get("/", deps.TeamHandler.GetTeam)
					r.With(idempotent).Patch("/", deps.TeamHandler.UpdateTeam)
					r.Delete("/", deps.TeamHandler.DeleteTeam)
					r.Route("/members", func(r chi.Router) {
						r.Get("/", deps.TeamHandler.ListTeamMembers)
						r.With(idempotent).Post("/", deps.TeamHandler.AddTeamMember)
						r.Route("/{userId}", func(r chi.Router) {
							r.With(idempotent).Patch("/", deps.TeamHandler.UpdateTeamMember)
							r.Delete("/", deps.TeamHandler.RemoveTeamMember)
						})
					})
				})
			})
		}

		// Equipment
		if deps.EquipmentHandler != nil {
			r.Route("/equipment", func(r chi.Router) {
				r.Get("/", deps.EquipmentHandler.ListEquipment)
				r.With(idempotent).Post("/", deps.EquipmentHandler.CreateEquipment)
				r.Route("/{equipmentId}", func(r chi.Router) {
					r.Get("/", deps.EquipmentHandler.GetEquipment)
					r.With(idempotent).Patch("/", deps.EquipmentHandler.UpdateEquipment)
					r.Delete("/", deps.EquipmentHandler.DeleteEquipment)
					r.Route("/images", func(r chi.Router) {
						r.Get("/", deps.EquipmentHandler.ListEquipmentImages)
						r.With(idempotent).Post("/", deps.EquipmentHandler.AddEquipmentImage)
					})
					if deps.NoteHandler != nil {
						r.Route("/notes", func(r chi.Router) {
							r.Get("/", deps.NoteHandler.ListEquipmentNotes)
							r.With(idempotent).Post("/", deps.NoteHandler.CreateEquipmentNote)
						})
					}
				})
			})
		}

		// Notes (note-level operations)
		if deps.NoteHandler != nil {
			r.Route("/notes/{noteId}", func(r chi.Router) {
				r.With(idempotent).Patch("/", deps.NoteHandler.UpdateNote)
				r.Delete("/", deps.NoteHandler.DeleteNote)
				r.Route("/images", func(r chi.Router) {
					r.Get("/", deps.NoteHandler.ListNoteImages)
					r.With(idempotent).Post("/", deps.NoteHandler.AddNoteImage)
				})
			})
		}

		// Work orders
		if deps.WorkOrderHandler != nil {
			r.Route("/workorders", func(r chi.Router) {
				r.Get("/", deps.WorkOrderHandler.ListWorkOrders)
				r.With(idempotent).Post("/", deps.WorkOrderHandler.CreateWorkOrder)
				r.Route("/{workOrderId}", func(r chi.Router) {
					r.Get("/", deps.WorkOrderHandler.GetWorkOrder)
					r.With(idempotent).Patch("/", deps.WorkOrderHandler.UpdateWorkOrder)
					r.Delete("/", deps.WorkOrderHandler.DeleteWorkOrder)
					r.With(idempotent).Post("/assign", deps.WorkOrderHandler.AssignWorkOrder)
					r.With(idempotent).Post("/status", deps.WorkOrderHandler.ChangeWorkOrderStatus)
				})
			})
		}

		// Analytics and reporting (premium features)
		if deps.AnalyticsHandler != nil {
			r.Get("/analytics/summary", deps.AnalyticsHandler.GetAnalyticsSummary)
			r.Get("/reports/workorders", deps.AnalyticsHandler.ExportWorkOrderReport)
		}
	})

	return r
}
