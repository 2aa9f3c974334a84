package authz_test

import (
	"testing"

	"fleetdesk-api/internal/authz"

	"github.com/stretchr/testify/assert"
)

func TestOrgRole_AtLeast(t *testing.T) {
	tests := []struct {
		name      string
		role      authz.OrgRole
		threshold authz.OrgRole
		want      bool
	}{
		{"owner meets owner", authz.OrgRoleOwner, authz.OrgRoleOwner, true},
		{"owner meets admin", authz.OrgRoleOwner, authz.OrgRoleAdmin, true},
		{"owner meets member", authz.OrgRoleOwner, authz.OrgRoleMember, true},
		{"admin below owner", authz.OrgRoleAdmin, authz.OrgRoleOwner, false},
		{"admin meets admin", authz.OrgRoleAdmin, authz.OrgRoleAdmin, true},
		{"admin meets member", authz.OrgRoleAdmin, authz.OrgRoleMember, true},
		{"member below admin", authz.OrgRoleMember, authz.OrgRoleAdmin, false},
		{"member meets member", authz.OrgRoleMember, authz.OrgRoleMember, true},
		{"invalid role never qualifies", authz.OrgRole("superuser"), authz.OrgRoleMember, false},
		{"empty role never qualifies", authz.OrgRole(""), authz.OrgRoleMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.threshold))
		})
	}
}

func TestTeamRole_AtLeast(t *testing.T) {
	tests := []struct {
		name      string
		role      authz.TeamRole
		threshold authz.TeamRole
		want      bool
	}{
		{"manager meets manager", authz.TeamRoleManager, authz.TeamRoleManager, true},
		{"manager meets technician", authz.TeamRoleManager, authz.TeamRoleTechnician, true},
		{"manager meets viewer", authz.TeamRoleManager, authz.TeamRoleViewer, true},
		{"technician below manager", authz.TeamRoleTechnician, authz.TeamRoleManager, false},
		{"technician meets viewer", authz.TeamRoleTechnician, authz.TeamRoleViewer, true},
		{"viewer below technician", authz.TeamRoleViewer, authz.TeamRoleTechnician, false},
		{"viewer meets viewer", authz.TeamRoleViewer, authz.TeamRoleViewer, true},
		{"invalid role never qualifies", authz.TeamRole("lead"), authz.TeamRoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.threshold))
		})
	}
}

func TestEnums_IsValid(t *testing.T) {
	assert.True(t, authz.OrgRoleOwner.IsValid())
	assert.True(t, authz.OrgRoleAdmin.IsValid())
	assert.True(t, authz.OrgRoleMember.IsValid())
	assert.False(t, authz.OrgRole("root").IsValid())

	assert.True(t, authz.TeamRoleManager.IsValid())
	assert.True(t, authz.TeamRoleTechnician.IsValid())
	assert.True(t, authz.TeamRoleViewer.IsValid())
	assert.False(t, authz.TeamRole("").IsValid())

	assert.True(t, authz.StatusActive.IsValid())
	assert.True(t, authz.StatusInactive.IsValid())
	assert.True(t, authz.StatusPending.IsValid())
	assert.False(t, authz.MembershipStatus("banned").IsValid())

	assert.True(t, authz.PlanFree.IsValid())
	assert.True(t, authz.PlanPremium.IsValid())
	assert.False(t, authz.Plan("enterprise").IsValid())
}
