package authz_test

import (
	"testing"

	"fleetdesk-api/internal/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrg() authz.RawOrganization {
	return authz.RawOrganization{
		OrganizationID: "org-1",
		UserID:         "user-1",
		Role:           authz.OrgRoleMember,
		Status:         authz.StatusActive,
		Plan:           authz.PlanFree,
	}
}

func TestBuildContext_CallerContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*authz.RawOrganization)
		wantErr error
	}{
		{
			name:    "missing user id",
			mutate:  func(o *authz.RawOrganization) { o.UserID = "" },
			wantErr: authz.ErrMissingUserID,
		},
		{
			name:    "whitespace user id",
			mutate:  func(o *authz.RawOrganization) { o.UserID = "   " },
			wantErr: authz.ErrMissingUserID,
		},
		{
			name:    "missing organization id",
			mutate:  func(o *authz.RawOrganization) { o.OrganizationID = "" },
			wantErr: authz.ErrMissingOrganizationID,
		},
		{
			name:    "unknown organization role",
			mutate:  func(o *authz.RawOrganization) { o.Role = "superuser" },
			wantErr: authz.ErrInvalidOrgRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org := validOrg()
			tt.mutate(&org)
			ctx, _, err := authz.BuildContext(org, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, ctx)
		})
	}
}

func TestBuildContext_UnknownStatusDegradesToInactive(t *testing.T) {
	org := validOrg()
	org.Status = "suspended"

	ctx, warnings, err := authz.BuildContext(org, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, authz.StatusInactive, ctx.Status())
}

func TestBuildContext_UnknownPlanDegradesToFree(t *testing.T) {
	org := validOrg()
	org.Plan = "enterprise"
	org.Features = []string{authz.FeatureAdvancedAnalytics}

	ctx, _, err := authz.BuildContext(org, nil)
	require.NoError(t, err)
	assert.Equal(t, authz.PlanFree, ctx.Plan())
	// Feature flags stand on their own; the plan label does not gate them.
	assert.True(t, ctx.HasFeature(authz.FeatureAdvancedAnalytics))
}

func TestBuildContext_DropsCrossOrgTeamMemberships(t *testing.T) {
	ctx, warnings, err := authz.BuildContext(validOrg(), []authz.RawTeamMembership{
		{TeamID: "team-a", OrganizationID: "org-1", Role: authz.TeamRoleViewer},
		{TeamID: "team-x", OrganizationID: "org-2", Role: authz.TeamRoleManager},
	})
	require.NoError(t, err)

	assert.True(t, ctx.IsTeamMember("team-a"))
	assert.False(t, ctx.IsTeamMember("team-x"))

	require.Len(t, warnings, 1)
	assert.Equal(t, authz.WarnCrossOrgMembership, warnings[0].Code)
}

func TestBuildContext_DuplicateTeamRowsKeepHighestPrivilege(t *testing.T) {
	tests := []struct {
		name  string
		roles []authz.TeamRole
		want  authz.TeamRole
	}{
		{"viewer then manager", []authz.TeamRole{authz.TeamRoleViewer, authz.TeamRoleManager}, authz.TeamRoleManager},
		{"manager then viewer", []authz.TeamRole{authz.TeamRoleManager, authz.TeamRoleViewer}, authz.TeamRoleManager},
		{"technician then technician", []authz.TeamRole{authz.TeamRoleTechnician, authz.TeamRoleTechnician}, authz.TeamRoleTechnician},
		{"viewer technician manager", []authz.TeamRole{authz.TeamRoleViewer, authz.TeamRoleTechnician, authz.TeamRoleManager}, authz.TeamRoleManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]authz.RawTeamMembership, 0, len(tt.roles))
			for _, role := range tt.roles {
				rows = append(rows, authz.RawTeamMembership{
					TeamID:         "team-a",
					OrganizationID: "org-1",
					Role:           role,
				})
			}

			ctx, warnings, err := authz.BuildContext(validOrg(), rows)
			require.NoError(t, err)

			role, ok := ctx.TeamRole("team-a")
			require.True(t, ok)
			assert.Equal(t, tt.want, role)

			// One warning per duplicate row beyond the first.
			assert.Len(t, warnings, len(tt.roles)-1)
			for _, w := range warnings {
				assert.Equal(t, authz.WarnDuplicateMembership, w.Code)
			}
		})
	}
}

func TestBuildContext_DropsInvalidTeamRoles(t *testing.T) {
	ctx, warnings, err := authz.BuildContext(validOrg(), []authz.RawTeamMembership{
		{TeamID: "team-a", OrganizationID: "org-1", Role: "lead"},
	})
	require.NoError(t, err)

	assert.False(t, ctx.IsTeamMember("team-a"))
	require.Len(t, warnings, 1)
	assert.Equal(t, authz.WarnInvalidTeamRole, warnings[0].Code)
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	org := validOrg()
	org.Features = []string{"b", "a"}

	rows := []authz.RawTeamMembership{
		{TeamID: "team-a", OrganizationID: "org-1", Role: authz.TeamRoleViewer},
		{TeamID: "team-b", OrganizationID: "org-1", Role: authz.TeamRoleManager},
	}

	ctx1, _, err := authz.BuildContext(org, rows)
	require.NoError(t, err)

	reversedOrg := validOrg()
	reversedOrg.Features = []string{"a", "b"}
	ctx2, _, err := authz.BuildContext(reversedOrg, []authz.RawTeamMembership{rows[1], rows[0]})
	require.NoError(t, err)

	assert.Equal(t, ctx1.Fingerprint(), ctx2.Fingerprint())
}

func TestFingerprint_DistinguishesContexts(t *testing.T) {
	base, _, err := authz.BuildContext(validOrg(), nil)
	require.NoError(t, err)

	admin := validOrg()
	admin.Role = authz.OrgRoleAdmin
	adminCtx, _, err := authz.BuildContext(admin, nil)
	require.NoError(t, err)

	withTeam, _, err := authz.BuildContext(validOrg(), []authz.RawTeamMembership{
		{TeamID: "team-a", OrganizationID: "org-1", Role: authz.TeamRoleViewer},
	})
	require.NoError(t, err)

	assert.NotEqual(t, base.Fingerprint(), adminCtx.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), withTeam.Fingerprint())
}

func TestOrganizationContext_TeamIDsSorted(t *testing.T) {
	ctx, _, err := authz.BuildContext(validOrg(), []authz.RawTeamMembership{
		{TeamID: "team-c", OrganizationID: "org-1", Role: authz.TeamRoleViewer},
		{TeamID: "team-a", OrganizationID: "org-1", Role: authz.TeamRoleViewer},
		{TeamID: "team-b", OrganizationID: "org-1", Role: authz.TeamRoleViewer},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"team-a", "team-b", "team-c"}, ctx.TeamIDs())
}
