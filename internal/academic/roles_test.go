package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Teacher ")
	require.NoError(t, err)
	assert.Equal(t, RoleTeacher, role)

	_, err = ParseRole("principal")
	assert.Error(t, err)
}

func TestValidateRoleAttributes(t *testing.T) {
	assert.NoError(t, ValidateRoleAttributes(RoleTeacher, RoleAttributes{Subject: strPtr("Math")}))
	assert.NoError(t, ValidateRoleAttributes(RoleStudent, RoleAttributes{RollNo: strPtr("7")}))
	assert.NoError(t, ValidateRoleAttributes(RoleAdmin, RoleAttributes{}))

	assert.Error(t, ValidateRoleAttributes(RoleTeacher, RoleAttributes{RollNo: strPtr("7")}))
	assert.Error(t, ValidateRoleAttributes(RoleStudent, RoleAttributes{AssignedClass: strPtr("10-A")}))
	assert.Error(t, ValidateRoleAttributes(RoleAccountant, RoleAttributes{AdmissionNo: strPtr("A-1")}))
}

func TestProfilesReportTheirRole(t *testing.T) {
	profiles := []RoleProfile{AdminProfile{}, TeacherProfile{}, StudentProfile{}, AccountantProfile{}}
	roles := make([]Role, 0, len(profiles))
	for _, p := range profiles {
		roles = append(roles, p.Role())
	}
	assert.Equal(t, []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleAccountant}, roles)
}

func TestMatchesSearch(t *testing.T) {
	assert.True(t, MatchesSearch("", "10", "A"))
	assert.True(t, MatchesSearch("  ", "anything"))
	assert.True(t, MatchesSearch("10 a", "10", "A", "Budi"))
	assert.True(t, MatchesSearch("mth", "Mathematics", "MTH101"))
	assert.False(t, MatchesSearch("bio", "Mathematics", "MTH101"))
}
