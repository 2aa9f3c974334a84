package authz_test

import (
	"sync"
	"testing"

	"fleetdesk-api/internal/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cache transparency: for every permission, context shape and entity shape,
// the cached engine and the uncached engine must agree, on cold and warm
// lookups alike.
func TestCache_Transparency(t *testing.T) {
	cache, err := authz.NewDecisionCache(0)
	require.NoError(t, err)

	cached := authz.NewEngine(authz.WithCache(cache))
	uncached := authz.NewEngine()

	contexts := []*authz.OrganizationContext{
		buildCtx(t, authz.OrgRoleOwner, authz.StatusActive, nil, nil),
		buildCtx(t, authz.OrgRoleAdmin, authz.StatusActive, []string{authz.FeatureCustomReports}, nil),
		buildCtx(t, authz.OrgRoleMember, authz.StatusActive, nil,
			map[string]authz.TeamRole{"team-a": authz.TeamRoleManager, "team-b": authz.TeamRoleViewer}),
		buildCtx(t, authz.OrgRoleMember, authz.StatusPending, nil,
			map[string]authz.TeamRole{"team-a": authz.TeamRoleManager}),
	}

	entities := []*authz.EntityContext{
		nil,
		{},
		{TeamID: "team-a"},
		{TeamID: "team-b"},
		{TeamID: "team-a", CreatedBy: "user-1", Status: "submitted"},
		{CreatedBy: "user-1", Status: "assigned"},
		{AssigneeID: "user-1", Status: "in_progress"},
		{AssigneeID: "user-2"},
	}

	for _, ctx := range contexts {
		for _, entity := range entities {
			for _, perm := range authz.Permissions() {
				want := uncached.Evaluate(perm, ctx, entity)
				assert.Equal(t, want, cached.Evaluate(perm, ctx, entity),
					"cold decision diverged for %s", perm)
				assert.Equal(t, want, cached.Evaluate(perm, ctx, entity),
					"warm decision diverged for %s", perm)
			}
		}
	}

	assert.Greater(t, cache.Len(), 0)
}

func TestCache_SemanticallyEqualContextsShareEntries(t *testing.T) {
	cache, err := authz.NewDecisionCache(0)
	require.NoError(t, err)
	engine := authz.NewEngine(authz.WithCache(cache))

	teams := map[string]authz.TeamRole{"team-a": authz.TeamRoleManager}
	first := buildCtx(t, authz.OrgRoleMember, authz.StatusActive, nil, teams)
	second := buildCtx(t, authz.OrgRoleMember, authz.StatusActive, nil, teams)
	require.NotSame(t, first, second)

	engine.Evaluate(authz.PermEquipmentEdit, first, &authz.EntityContext{TeamID: "team-a"})
	warm := cache.Len()

	// A distinct but semantically-equal context hits the same entry.
	engine.Evaluate(authz.PermEquipmentEdit, second, &authz.EntityContext{TeamID: "team-a"})
	assert.Equal(t, warm, cache.Len())
}

func TestCache_IrrelevantEntityFieldsDoNotFragment(t *testing.T) {
	cache, err := authz.NewDecisionCache(0)
	require.NoError(t, err)
	engine := authz.NewEngine(authz.WithCache(cache))

	ctx := buildCtx(t, authz.OrgRoleMember, authz.StatusActive, nil,
		map[string]authz.TeamRole{"team-a": authz.TeamRoleManager})

	// equipment.edit consults only the team; assignee and creator noise must
	// not mint new entries.
	engine.Evaluate(authz.PermEquipmentEdit, ctx, &authz.EntityContext{TeamID: "team-a"})
	warm := cache.Len()
	engine.Evaluate(authz.PermEquipmentEdit, ctx, &authz.EntityContext{TeamID: "team-a", AssigneeID: "user-9", CreatedBy: "user-8", Status: "completed"})
	assert.Equal(t, warm, cache.Len())
}

func TestCache_InvalidateDropsEverything(t *testing.T) {
	cache, err := authz.NewDecisionCache(0)
	require.NoError(t, err)
	engine := authz.NewEngine(authz.WithCache(cache))

	ctx := buildCtx(t, authz.OrgRoleAdmin, authz.StatusActive, nil, nil)
	engine.Evaluate(authz.PermOrganizationManage, ctx, nil)
	engine.Evaluate(authz.PermOrganizationInvite, ctx, nil)
	require.Greater(t, cache.Len(), 0)

	engine.InvalidateCache()
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ConcurrentColdLookups(t *testing.T) {
	cache, err := authz.NewDecisionCache(0)
	require.NoError(t, err)
	engine := authz.NewEngine(authz.WithCache(cache))

	ctx := buildCtx(t, authz.OrgRoleMember, authz.StatusActive, nil,
		map[string]authz.TeamRole{"team-a": authz.TeamRoleTechnician})
	perms := authz.Permissions()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, perm := range perms {
				engine.Evaluate(perm, ctx, &authz.EntityContext{TeamID: "team-a"})
			}
		}()
	}
	wg.Wait()

	// Every goroutine saw consistent decisions; spot-check one.
	assert.True(t, engine.Evaluate(authz.PermEquipmentView, ctx, &authz.EntityContext{TeamID: "team-a"}))
}
