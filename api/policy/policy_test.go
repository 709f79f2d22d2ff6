package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civiclens/civic-complaints-api/api/policy"
	"github.com/civiclens/civic-complaints-api/models"
)

var (
	deptX = primitive.NewObjectID()
	deptY = primitive.NewObjectID()
	owner = primitive.NewObjectID()
	other = primitive.NewObjectID()
)

func citizen(id primitive.ObjectID) models.Identity {
	return models.Identity{ID: id, Role: models.RoleCitizen}
}

func staff(dept primitive.ObjectID) models.Identity {
	return models.Identity{ID: primitive.NewObjectID(), Role: models.RoleDepartment, Department: dept}
}

func admin() models.Identity {
	return models.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func TestCanReadComplaint(t *testing.T) {
	complaint := &models.Complaint{Citizen: owner, Department: deptX}

	cases := []struct {
		name     string
		identity models.Identity
		want     bool
	}{
		{"owning citizen", citizen(owner), true},
		{"other citizen", citizen(other), false},
		{"staff of routed department", staff(deptX), true},
		{"staff of another department", staff(deptY), false},
		{"admin", admin(), true},
		{"unknown role denied", models.Identity{ID: other, Role: "superuser"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.CanReadComplaint(tc.identity, complaint))
		})
	}
}

func TestCanReadComplaintUnroutedComplaint(t *testing.T) {
	// no department routed yet, only the owner and admins can see it
	complaint := &models.Complaint{Citizen: owner}

	assert.True(t, policy.CanReadComplaint(citizen(owner), complaint))
	assert.False(t, policy.CanReadComplaint(staff(deptX), complaint))
	assert.True(t, policy.CanReadComplaint(admin(), complaint))
}

func TestCanUpdateStatus(t *testing.T) {
	complaint := &models.Complaint{Citizen: owner, Department: deptX}

	assert.False(t, policy.CanUpdateStatus(citizen(owner), complaint), "citizens never update status")
	assert.True(t, policy.CanUpdateStatus(staff(deptX), complaint))
	assert.False(t, policy.CanUpdateStatus(staff(deptY), complaint))
	assert.True(t, policy.CanUpdateStatus(admin(), complaint))
}

func TestCommentAndVoteFollowReadAccess(t *testing.T) {
	complaint := &models.Complaint{Citizen: owner, Department: deptX}

	for _, identity := range []models.Identity{citizen(owner), citizen(other), staff(deptX), staff(deptY), admin()} {
		read := policy.CanReadComplaint(identity, complaint)
		assert.Equal(t, read, policy.CanComment(identity, complaint))
		assert.Equal(t, read, policy.CanVote(identity, complaint))
	}
}

func TestAdminOnlyGates(t *testing.T) {
	assert.True(t, policy.CanManageDepartments(admin()))
	assert.False(t, policy.CanManageDepartments(staff(deptX)))
	assert.False(t, policy.CanManageDepartments(citizen(owner)))

	assert.True(t, policy.CanManageUsers(admin()))
	assert.False(t, policy.CanManageUsers(staff(deptX)))
	assert.False(t, policy.CanManageUsers(citizen(owner)))
}

func TestCanViewStatsAndScope(t *testing.T) {
	assert.False(t, policy.CanViewStats(citizen(owner)))
	assert.True(t, policy.CanViewStats(staff(deptX)))
	assert.True(t, policy.CanViewStats(admin()))

	scoped, dept := policy.StatsScope(staff(deptX))
	assert.True(t, scoped)
	assert.Equal(t, deptX, dept)

	scoped, dept = policy.StatsScope(admin())
	assert.False(t, scoped)
	assert.Nil(t, dept)

	// staff without a department assignment never get the unscoped view,
	// the zero reference matches no complaints
	scoped, dept = policy.StatsScope(models.Identity{Role: models.RoleDepartment})
	assert.True(t, scoped)
	assert.Equal(t, primitive.NilObjectID, dept)
}

func TestCanSubscribeFeed(t *testing.T) {
	assert.False(t, policy.CanSubscribeFeed(citizen(owner)))
	assert.True(t, policy.CanSubscribeFeed(staff(deptX)))
	assert.True(t, policy.CanSubscribeFeed(admin()))
}
