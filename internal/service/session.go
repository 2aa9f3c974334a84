package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"

	"go.uber.org/zap"
)

var (
	ErrMemberNotFound = repo.ErrMemberNotFound
)

// MembershipSource loads the raw membership rows a session is built from.
// Satisfied by repo.MembershipRepository; tests substitute a fake.
type MembershipSource interface {
	GetOrganizationRow(ctx context.Context, userID, organizationID string) (*authz.RawOrganization, error)
	GetTeamRows(ctx context.Context, userID, organizationID string) ([]authz.RawTeamMembership, error)
}

// SessionService owns the per-(user, organization) authorization contexts
// and the permission engine. A context is built once from membership rows
// and reused until a membership, team or plan mutation invalidates it;
// invalidation also purges the engine's decision cache so no decision
// outlives the context it was computed against.
type SessionService struct {
	source MembershipSource
	engine *authz.Engine
	log    *logger.Logger

	mu       sync.RWMutex
	contexts map[string]*authz.OrganizationContext
}

func NewSessionService(source MembershipSource, engine *authz.Engine, log *logger.Logger) *SessionService {
	return &SessionService{
		source:   source,
		engine:   engine,
		log:      log,
		contexts: make(map[string]*authz.OrganizationContext),
	}
}

// Engine exposes the permission engine for capability evaluation.
func (s *SessionService) Engine() *authz.Engine {
	return s.engine
}

func sessionKey(userID, organizationID string) string {
	return userID + "|" + organizationID
}

// ContextFor returns the authorization context for a user in an organization,
// building it from membership rows on first use.
//
// Returns ErrMemberNotFound when the user has no membership row; handlers
// map this to 403 so organization existence is not leaked.
func (s *SessionService) ContextFor(ctx context.Context, userID, organizationID string) (*authz.OrganizationContext, error) {
	key := sessionKey(userID, organizationID)

	s.mu.RLock()
	cached, ok := s.contexts[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	raw, err := s.source.GetOrganizationRow(ctx, userID, organizationID)
	if err != nil {
		if errors.Is(err, repo.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("load organization membership: %w", err)
	}

	teams, err := s.source.GetTeamRows(ctx, userID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("load team memberships: %w", err)
	}

	orgCtx, warnings, err := authz.BuildContext(*raw, teams)
	if err != nil {
		return nil, fmt.Errorf("build authorization context: %w", err)
	}

	for _, w := range warnings {
		s.log.Warn(ctx, "membership data anomaly",
			logger.Module("session"),
			logger.Action("build_context"),
			zap.String("user_id", userID),
			zap.String("organization_id", organizationID),
			zap.String("code", w.Code),
			zap.String("detail", w.Message),
		)
	}

	s.mu.Lock()
	s.contexts[key] = orgCtx
	s.mu.Unlock()

	return orgCtx, nil
}

// Capabilities returns the capability facade for a user in an organization.
func (s *SessionService) Capabilities(ctx context.Context, userID, organizationID string) (*authz.Capabilities, error) {
	orgCtx, err := s.ContextFor(ctx, userID, organizationID)
	if err != nil {
		return nil, err
	}
	return authz.NewCapabilities(s.engine, orgCtx), nil
}

// Evaluate runs one permission check for a user in an organization.
func (s *SessionService) Evaluate(ctx context.Context, userID, organizationID string, perm authz.Permission, entity *authz.EntityContext) (bool, error) {
	orgCtx, err := s.ContextFor(ctx, userID, organizationID)
	if err != nil {
		return false, err
	}
	return s.engine.Evaluate(perm, orgCtx, entity), nil
}

// Invalidate discards the cached context for one user in one organization.
// Called after a role or status change for that member.
func (s *SessionService) Invalidate(ctx context.Context, userID, organizationID string) {
	s.mu.Lock()
	delete(s.contexts, sessionKey(userID, organizationID))
	s.mu.Unlock()
	s.engine.InvalidateCache()

	s.log.Debug(ctx, "session invalidated",
		logger.Module("session"),
		logger.Action("invalidate"),
		zap.String("user_id", userID),
		zap.String("organization_id", organizationID),
	)
}

// InvalidateOrganization discards every cached context for an organization.
// Called after team roster, plan or feature changes that affect an unknown
// set of members.
func (s *SessionService) InvalidateOrganization(ctx context.Context, organizationID string) {
	suffix := "|" + organizationID

	s.mu.Lock()
	for key := range s.contexts {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			delete(s.contexts, key)
		}
	}
	s.mu.Unlock()
	s.engine.InvalidateCache()

	s.log.Debug(ctx, "organization sessions invalidated",
		logger.Module("session"),
		logger.Action("invalidate"),
		zap.String("organization_id", organizationID),
	)
}
