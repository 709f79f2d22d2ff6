package scheduler

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civiclens/civic-complaints-api/databases/mocks"
	"github.com/civiclens/civic-complaints-api/models"
)

func TestReconcileRepairsDriftedCounters(t *testing.T) {
	drifted := models.Department{ID: primitive.NewObjectID(), TotalComplaints: 5, ResolvedComplaints: 5}

	ddb := &mocks.DepartmentDatabase{}
	cdb := &mocks.ComplaintDatabase{}

	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.Department{drifted}, nil)
	cdb.On("CountDocuments", mock.Anything, bson.M{"department": drifted.ID}).Return(int64(7), nil)
	cdb.On("CountDocuments", mock.Anything, bson.M{"department": drifted.ID, "status": models.StatusResolved}).
		Return(int64(6), nil)
	ddb.On("UpdateOne", mock.Anything, bson.M{"_id": drifted.ID}, bson.M{"$set": bson.M{
		"totalComplaints":    int64(7),
		"resolvedComplaints": int64(6),
	}}).Return(nil, nil)

	s := NewScheduler(ddb, cdb)
	s.reconcileDepartmentCounters()

	ddb.AssertExpectations(t)
	cdb.AssertExpectations(t)
}

func TestReconcileLeavesAccurateCountersAlone(t *testing.T) {
	accurate := models.Department{ID: primitive.NewObjectID(), TotalComplaints: 3, ResolvedComplaints: 1}

	ddb := &mocks.DepartmentDatabase{}
	cdb := &mocks.ComplaintDatabase{}

	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.Department{accurate}, nil)
	cdb.On("CountDocuments", mock.Anything, bson.M{"department": accurate.ID}).Return(int64(3), nil)
	cdb.On("CountDocuments", mock.Anything, bson.M{"department": accurate.ID, "status": models.StatusResolved}).
		Return(int64(1), nil)

	s := NewScheduler(ddb, cdb)
	s.reconcileDepartmentCounters()

	ddb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
