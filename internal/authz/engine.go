package authz

import "strings"

// Metrics receives decision and cache outcomes. Implemented by the telemetry
// package; a nil Metrics disables recording.
type Metrics interface {
	RecordDecision(domain string, allowed bool)
	RecordCacheLookup(hit bool)
}

// Engine is the rule evaluator. It is a synchronous, side-effect-free pure
// function over immutable inputs: safe for concurrent use against the same
// OrganizationContext without locking. The decision cache is an optional,
// behavior-transparent optimization.
type Engine struct {
	cache   *DecisionCache
	metrics Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache attaches a decision cache. Disabling the cache never changes any
// decision, only latency.
func WithCache(cache *DecisionCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithMetrics attaches decision metrics.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a new Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InvalidateCache drops every cached decision. Must be called whenever the
// OrganizationContext a caller evaluates against is replaced (organization
// switch, role change, team-membership change, plan change).
func (e *Engine) InvalidateCache() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Evaluate answers whether the permission is allowed for the user described
// by ctx, optionally against a specific entity. It never returns an error and
// never panics on malformed entity data: every ambiguity resolves to deny.
//
// A nil ctx is a caller-contract violation (contexts only exist via
// BuildContext) and panics rather than producing a decision.
func (e *Engine) Evaluate(perm Permission, ctx *OrganizationContext, entity *EntityContext) bool {
	if ctx == nil {
		panic("authz: Evaluate called with nil OrganizationContext")
	}

	desc, ok := Lookup(perm)
	if !ok {
		// Unrecognized permission: fail closed, never throw.
		e.recordDecision(perm, false)
		return false
	}

	if e.cache != nil {
		key := cacheKey(perm, desc, ctx, entity)
		if allowed, hit := e.cache.Get(key); hit {
			e.recordCacheLookup(true)
			return allowed
		}
		e.recordCacheLookup(false)
		allowed := e.decide(desc, ctx, entity)
		e.cache.Set(key, allowed)
		e.recordDecision(perm, allowed)
		return allowed
	}

	allowed := e.decide(desc, ctx, entity)
	e.recordDecision(perm, allowed)
	return allowed
}

// decide applies the fixed, short-circuiting evaluation order. The order is
// itself part of the contract: status gate, feature gate, org-role fast path,
// team-scoped path, entity-relationship path, default deny.
func (e *Engine) decide(desc Descriptor, ctx *OrganizationContext, entity *EntityContext) bool {
	// 1. Fail-closed gate: inactive/pending members hold no permissions.
	if ctx.Status() != StatusActive {
		return false
	}

	// 2. Feature gate, independent of role: a downgraded organization loses
	// premium-only actions immediately, whatever the caller's role.
	if desc.RequiresFeature != "" && !ctx.HasFeature(desc.RequiresFeature) {
		return false
	}

	// 3. Organization-role fast path.
	if desc.OwnerOnly {
		if ctx.Role() == OrgRoleOwner {
			return true
		}
	} else if ctx.Role().AtLeast(desc.MinOrgRole) {
		return true
	}

	// 4. Team-scoped path. Only a membership in exactly the entity's team
	// counts; managing some other team grants nothing here.
	if desc.TeamScoped && entity != nil && entity.TeamID != "" {
		if role, ok := ctx.TeamRole(entity.TeamID); ok && role.AtLeast(desc.MinTeamRole) {
			return true
		}
	}

	// 5. Entity-relationship path.
	if entity != nil {
		switch desc.EntityRule {
		case EntityRuleCreatorWhileSubmitted:
			if entity.CreatedBy != "" && entity.CreatedBy == ctx.UserID() && entity.Status == "submitted" {
				return true
			}
		case EntityRuleAssignee:
			if entity.AssigneeID != "" && entity.AssigneeID == ctx.UserID() {
				return true
			}
		}
	}

	// 6. Default deny.
	return false
}

// cacheKey builds the composite fingerprint for one evaluation. Only entity
// fields the descriptor actually consults are keyed, so irrelevant fields
// neither fragment the cache nor leak into decisions.
func cacheKey(perm Permission, desc Descriptor, ctx *OrganizationContext, entity *EntityContext) string {
	var b strings.Builder
	b.WriteString(ctx.Fingerprint())
	b.WriteByte('#')
	b.WriteString(string(perm))
	if entity != nil {
		if desc.TeamScoped {
			b.WriteByte('#')
			b.WriteString(entity.TeamID)
		}
		switch desc.EntityRule {
		case EntityRuleCreatorWhileSubmitted:
			b.WriteByte('#')
			b.WriteString(entity.CreatedBy)
			b.WriteByte('#')
			b.WriteString(entity.Status)
		case EntityRuleAssignee:
			b.WriteByte('#')
			b.WriteString(entity.AssigneeID)
		}
	}
	return b.String()
}

func (e *Engine) recordDecision(perm Permission, allowed bool) {
	if e.metrics != nil {
		e.metrics.RecordDecision(perm.Domain(), allowed)
	}
}

func (e *Engine) recordCacheLookup(hit bool) {
	if e.metrics != nil {
		e.metrics.RecordCacheLookup(hit)
	}
}
