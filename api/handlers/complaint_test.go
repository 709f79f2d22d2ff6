package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civiclens/civic-complaints-api/api"
	"github.com/civiclens/civic-complaints-api/api/handlers"
	"github.com/civiclens/civic-complaints-api/databases/mocks"
	"github.com/civiclens/civic-complaints-api/models"
)

func asIdentity(req *http.Request, identity models.Identity) *http.Request {
	return req.WithContext(api.WithIdentity(req.Context(), identity))
}

func TestComplaint_CreateCanonicalizesCategoryAndRoutes(t *testing.T) {
	citizenID := primitive.NewObjectID()
	dept := models.Department{ID: primitive.NewObjectID(), Name: "Power Utility", IsActive: true}

	cdb := &mocks.ComplaintDatabase{}
	ddb := &mocks.DepartmentDatabase{}
	udb := &mocks.UserDatabase{}

	ddb.On("FindOne", mock.Anything, bson.M{"isActive": true, "categories": "Electricity"}).
		Return(&dept, nil)
	cdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(cpl models.Complaint) bool {
		return cpl.Category == "Electricity" &&
			cpl.Priority == models.PriorityHigh &&
			cpl.Status == models.StatusPending &&
			cpl.Department == dept.ID &&
			cpl.Citizen == citizenID &&
			len(cpl.Upvotes) == 0 && len(cpl.Downvotes) == 0
	})).Return("id", nil)
	ddb.On("UpdateOne", mock.Anything, bson.M{"_id": dept.ID},
		bson.M{"$inc": bson.M{"totalComplaints": 1}}).Return(nil, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{{ID: citizenID, Name: "Sam"}}, nil)
	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.Department{dept}, nil)

	c := handlers.Complaint{DB: cdb, DDB: ddb, UDB: udb, Env: "development"}

	body := `{"title":"No power on Elm St","description":"Outage since morning","category":"electricity ","location":{"address":"12 Elm St"}}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints", strings.NewReader(body)),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.CreateComplaintHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp models.PopulatedComplaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Electricity", resp.Category)
	assert.Equal(t, models.PriorityHigh, resp.Priority)
	assert.Equal(t, "Power Utility", resp.DepartmentDetail.Name)
	cdb.AssertExpectations(t)
	ddb.AssertExpectations(t)
}

func TestComplaint_CreateWithoutMatchingDepartmentStaysUnassigned(t *testing.T) {
	citizenID := primitive.NewObjectID()

	cdb := &mocks.ComplaintDatabase{}
	ddb := &mocks.DepartmentDatabase{}
	udb := &mocks.UserDatabase{}

	ddb.On("FindOne", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound)
	cdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(cpl models.Complaint) bool {
		return cpl.Department.IsZero() && cpl.Priority == models.PriorityMedium
	})).Return("id", nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{{ID: citizenID}}, nil)

	c := handlers.Complaint{DB: cdb, DDB: ddb, UDB: udb, Env: "development"}

	body := `{"title":"Broken swing","description":"Playground swing chain snapped","category":"parks & recreation","location":{"address":"Central Park"}}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints", strings.NewReader(body)),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.CreateComplaintHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	// no counter bump when routing found no department
	ddb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplaint_CreateAbortsWhenRoutingLookupFails(t *testing.T) {
	cdb := &mocks.ComplaintDatabase{}
	ddb := &mocks.DepartmentDatabase{}

	ddb.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	c := handlers.Complaint{DB: cdb, DDB: ddb, UDB: &mocks.UserDatabase{}, Env: "development"}

	body := `{"title":"No power on Elm St","description":"Outage since morning","category":"electricity","location":{"address":"12 Elm St"}}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints", strings.NewReader(body)),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.CreateComplaintHandler(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	cdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string) (models.ComplaintImage, error) {
	return models.ComplaintImage{}, errors.New("upstream unavailable")
}

func (failingUploader) Destroy(context.Context, string) error { return nil }

func TestComplaint_CreateAbortsWhenImageUploadFails(t *testing.T) {
	cdb := &mocks.ComplaintDatabase{}
	ddb := &mocks.DepartmentDatabase{}
	ddb.On("FindOne", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound)

	c := handlers.Complaint{DB: cdb, DDB: ddb, UDB: &mocks.UserDatabase{},
		Uploader: failingUploader{}, Env: "development"}

	body := `{"title":"Broken swing","description":"Playground swing chain snapped","category":"parks & recreation","location":{"address":"Central Park"},"images":["data:image/png;base64,xxxx"]}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints", strings.NewReader(body)),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.CreateComplaintHandler(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	cdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestComplaint_CreateRejectsInvalidInputListingFields(t *testing.T) {
	c := handlers.Complaint{DB: &mocks.ComplaintDatabase{}, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	body := `{"title":"","description":"x","category":"Potholes","location":{"address":""}}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints", strings.NewReader(body)),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.CreateComplaintHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp struct {
		Errors []string `json:"errors"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"title", "location.address", "category"}, resp.Errors)
}

func TestComplaint_ListScopesCitizenToOwnComplaints(t *testing.T) {
	citizenID := primitive.NewObjectID()

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["citizen"] == citizenID
	}), mock.Anything).Return([]models.Complaint{}, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints", nil),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.ComplaintHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	cdb.AssertExpectations(t)
}

func TestComplaint_ListScopesStaffToOwnDepartment(t *testing.T) {
	deptID := primitive.NewObjectID()

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		return ok && m["department"] == deptID && m["status"] == models.StatusPending
	}), mock.Anything).Return([]models.Complaint{}, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints?status=Pending", nil),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleDepartment, Department: deptID})
	rr := httptest.NewRecorder()

	c.ComplaintHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	cdb.AssertExpectations(t)
}

func TestComplaint_ListPrioritySortRanksInsideTheQuery(t *testing.T) {
	citizenID := primitive.NewObjectID()
	complaints := []models.Complaint{
		{ID: primitive.NewObjectID(), Citizen: citizenID, Priority: models.PriorityCritical},
		{ID: primitive.NewObjectID(), Citizen: citizenID, Priority: models.PriorityHigh},
	}

	cdb := &mocks.ComplaintDatabase{}
	udb := &mocks.UserDatabase{}
	cdb.On("Aggregate", mock.Anything, mock.MatchedBy(func(pipeline interface{}) bool {
		stages, ok := pipeline.([]bson.M)
		if !ok {
			return false
		}
		// rank projection and sort must both run before any pagination
		// stage so an old Critical complaint still outranks a newer page
		var rankAt, sortAt, skipAt = -1, -1, -1
		for i, stage := range stages {
			if _, ok := stage["$addFields"]; ok {
				rankAt = i
			}
			if _, ok := stage["$sort"]; ok {
				sortAt = i
			}
			if _, ok := stage["$skip"]; ok {
				skipAt = i
			}
		}
		return rankAt >= 0 && sortAt > rankAt && skipAt > sortAt
	}), mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(2).(*[]models.Complaint) = complaints
	}).Return(nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{{ID: citizenID}}, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: udb, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints?sort=priority&limit=2&page=1", nil),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.ComplaintHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp []models.PopulatedComplaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
	assert.Equal(t, models.PriorityCritical, resp[0].Priority)
	cdb.AssertExpectations(t)
	cdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplaint_ListWithoutPaginationReturnsFullSet(t *testing.T) {
	citizenID := primitive.NewObjectID()

	cdb := &mocks.ComplaintDatabase{}
	udb := &mocks.UserDatabase{}
	cdb.On("Find", mock.Anything, mock.Anything, mock.MatchedBy(func(opts *options.FindOptions) bool {
		return opts.Limit == nil && opts.Skip == nil
	})).Return([]models.Complaint{}, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{}, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: udb, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints", nil),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.ComplaintHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	cdb.AssertExpectations(t)
}

func TestComplaint_GetByIDExpandsCommentAuthors(t *testing.T) {
	citizenID := primitive.NewObjectID()
	staffID := primitive.NewObjectID()
	complaint := models.Complaint{
		ID:      primitive.NewObjectID(),
		Citizen: citizenID,
		Comments: []models.Comment{
			{ID: primitive.NewObjectID(), User: staffID, Text: "Crew dispatched", IsOfficial: true},
		},
	}

	cdb := &mocks.ComplaintDatabase{}
	udb := &mocks.UserDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)
	udb.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		in, ok := filter.(bson.M)["_id"].(bson.M)
		if !ok {
			return false
		}
		ids, ok := in["$in"].([]primitive.ObjectID)
		if !ok {
			return false
		}
		var hasAuthor bool
		for _, id := range ids {
			if id == staffID {
				hasAuthor = true
			}
		}
		return hasAuthor
	})).Return([]models.User{
		{ID: citizenID, Name: "Sam"},
		{ID: staffID, Name: "Riley", Role: models.RoleDepartment},
	}, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: udb, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints/"+complaint.ID.Hex(), nil),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.ComplaintByIDHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp models.PopulatedComplaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	if assert.Len(t, resp.Comments, 1) && assert.NotNil(t, resp.Comments[0].Author) {
		assert.Equal(t, "Riley", resp.Comments[0].Author.Name)
	}
	udb.AssertExpectations(t)
}

func TestComplaint_GetByIDForbiddenForOtherCitizen(t *testing.T) {
	complaint := models.Complaint{ID: primitive.NewObjectID(), Citizen: primitive.NewObjectID()}

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints/"+complaint.ID.Hex(), nil),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleCitizen})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.ComplaintByIDHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestComplaint_GetByIDNotFound(t *testing.T) {
	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	id := primitive.NewObjectID().Hex()
	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints/"+id, nil),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": id})
	rr := httptest.NewRecorder()

	c.ComplaintByIDHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestComplaint_UpdateStatusForbiddenAcrossDepartments(t *testing.T) {
	deptX := primitive.NewObjectID()
	deptY := primitive.NewObjectID()
	complaint := models.Complaint{ID: primitive.NewObjectID(), Department: deptY, Status: models.StatusPending}

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	body := `{"status":"In Progress"}`
	req := asIdentity(httptest.NewRequest("PUT", "/api/v1/complaints/"+complaint.ID.Hex()+"/status", strings.NewReader(body)),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleDepartment, Department: deptX})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.UpdateComplaintStatusHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	cdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplaint_UpdateStatusTerminalStateRejected(t *testing.T) {
	complaint := models.Complaint{ID: primitive.NewObjectID(), Status: models.StatusResolved}

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	body := `{"status":"Pending"}`
	req := asIdentity(httptest.NewRequest("PUT", "/api/v1/complaints/"+complaint.ID.Hex()+"/status", strings.NewReader(body)),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.UpdateComplaintStatusHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Resolved")
	cdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplaint_ResolveRecordsDetailsAndFoldsRunningAverage(t *testing.T) {
	deptID := primitive.NewObjectID()
	resolver := primitive.NewObjectID()
	complaint := models.Complaint{
		ID:         primitive.NewObjectID(),
		Citizen:    primitive.NewObjectID(),
		Department: deptID,
		Status:     models.StatusInProgress,
		CreatedAt:  time.Now().UTC().Add(-16 * time.Hour),
	}

	cdb := &mocks.ComplaintDatabase{}
	ddb := &mocks.DepartmentDatabase{}
	udb := &mocks.UserDatabase{}

	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)
	cdb.On("UpdateOne", mock.Anything, bson.M{"_id": complaint.ID}, mock.MatchedBy(func(update interface{}) bool {
		m, ok := update.(bson.M)
		if !ok {
			return false
		}
		set, ok := m["$set"].(bson.M)
		if !ok || set["status"] != models.StatusResolved {
			return false
		}
		details, ok := set["resolutionDetails"].(*models.ResolutionDetails)
		return ok && details.ResolvedBy == resolver && details.ResolutionNotes == "replaced transformer"
	})).Return(nil, nil)

	// the department counters must be updated with a single pipeline update
	// so concurrent resolutions cannot lose writes
	ddb.On("UpdateOne", mock.Anything, bson.M{"_id": deptID}, mock.MatchedBy(func(update interface{}) bool {
		pipeline, ok := update.([]bson.M)
		if !ok || len(pipeline) != 1 {
			return false
		}
		set, ok := pipeline[0]["$set"].(bson.M)
		if !ok {
			return false
		}
		_, hasResolved := set["resolvedComplaints"]
		_, hasAvg := set["avgResolutionTime"]
		return hasResolved && hasAvg
	})).Return(nil, nil)

	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{{ID: complaint.Citizen}, {ID: resolver}}, nil)
	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.Department{{ID: deptID, Name: "Power Utility"}}, nil)

	c := handlers.Complaint{DB: cdb, DDB: ddb, UDB: udb, Env: "development"}

	body := `{"status":"Resolved","resolutionNotes":"replaced transformer"}`
	req := asIdentity(httptest.NewRequest("PUT", "/api/v1/complaints/"+complaint.ID.Hex()+"/status", strings.NewReader(body)),
		models.Identity{ID: resolver, Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.UpdateComplaintStatusHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp models.PopulatedComplaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusResolved, resp.Status)
	assert.NotNil(t, resp.ResolutionDetails)
	cdb.AssertExpectations(t)
	ddb.AssertExpectations(t)
}

func TestComplaint_AddCommentFlagsOfficialForStaff(t *testing.T) {
	deptID := primitive.NewObjectID()
	staffID := primitive.NewObjectID()
	complaint := models.Complaint{ID: primitive.NewObjectID(), Citizen: primitive.NewObjectID(), Department: deptID}

	cdb := &mocks.ComplaintDatabase{}
	udb := &mocks.UserDatabase{}

	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)
	cdb.On("UpdateOne", mock.Anything, bson.M{"_id": complaint.ID}, mock.MatchedBy(func(update interface{}) bool {
		m, ok := update.(bson.M)
		if !ok {
			return false
		}
		push, ok := m["$push"].(bson.M)
		if !ok {
			return false
		}
		comment, ok := push["comments"].(models.Comment)
		return ok && comment.IsOfficial && comment.Text == "crew dispatched"
	})).Return(nil, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: staffID, Name: "Riley"}, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: udb, Env: "development"}

	body := `{"text":" crew dispatched "}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints/"+complaint.ID.Hex()+"/comments", strings.NewReader(body)),
		models.Identity{ID: staffID, Role: models.RoleDepartment, Department: deptID})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.AddCommentHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp models.PopulatedComment
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.IsOfficial)
	assert.Equal(t, "Riley", resp.Author.Name)
	cdb.AssertExpectations(t)
}

func TestComplaint_VoteReturnsCountsOnly(t *testing.T) {
	citizenID := primitive.NewObjectID()
	complaint := models.Complaint{
		ID:        primitive.NewObjectID(),
		Citizen:   citizenID,
		Downvotes: []primitive.ObjectID{citizenID},
	}

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	// opposite vote swaps the existing downvote for an upvote
	body := `{"voteType":"upvote"}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints/"+complaint.ID.Hex()+"/vote", strings.NewReader(body)),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.VoteComplaintHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var counts models.VoteCounts
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	assert.Equal(t, 1, counts.Upvotes)
	assert.Equal(t, 0, counts.Downvotes)
	assert.NotContains(t, rr.Body.String(), "title")
}

func TestComplaint_VoteInvalidTypeRejected(t *testing.T) {
	citizenID := primitive.NewObjectID()
	complaint := models.Complaint{ID: primitive.NewObjectID(), Citizen: citizenID}

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(&complaint, nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	body := `{"voteType":"sideways"}`
	req := asIdentity(httptest.NewRequest("POST", "/api/v1/complaints/"+complaint.ID.Hex()+"/vote", strings.NewReader(body)),
		models.Identity{ID: citizenID, Role: models.RoleCitizen})
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	rr := httptest.NewRecorder()

	c.VoteComplaintHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	cdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplaint_StatsForbiddenForCitizens(t *testing.T) {
	c := handlers.Complaint{DB: &mocks.ComplaintDatabase{}, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints/stats", nil),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleCitizen})
	rr := httptest.NewRecorder()

	c.ComplaintStatsHandler(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestComplaint_StatsScopedToStaffDepartment(t *testing.T) {
	deptID := primitive.NewObjectID()

	cdb := &mocks.ComplaintDatabase{}
	cdb.On("CountDocuments", mock.Anything, bson.M{"department": deptID}).Return(int64(7), nil)
	cdb.On("Aggregate", mock.Anything, mock.MatchedBy(func(pipeline interface{}) bool {
		stages, ok := pipeline.([]bson.M)
		if !ok || len(stages) == 0 {
			return false
		}
		match, ok := stages[0]["$match"].(bson.M)
		return ok && match["department"] == deptID
	}), mock.Anything).Return(nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints/stats", nil),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleDepartment, Department: deptID})
	rr := httptest.NewRecorder()

	c.ComplaintStatsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var stats models.ComplaintStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, int64(7), stats.TotalComplaints)
}

func TestComplaint_StatsUnassignedStaffNeverSeeSystemWide(t *testing.T) {
	cdb := &mocks.ComplaintDatabase{}
	cdb.On("CountDocuments", mock.Anything, bson.M{"department": primitive.NilObjectID}).
		Return(int64(0), nil)
	cdb.On("Aggregate", mock.Anything, mock.MatchedBy(func(pipeline interface{}) bool {
		stages, ok := pipeline.([]bson.M)
		if !ok || len(stages) == 0 {
			return false
		}
		match, ok := stages[0]["$match"].(bson.M)
		return ok && match["department"] == primitive.NilObjectID
	}), mock.Anything).Return(nil)

	c := handlers.Complaint{DB: cdb, DDB: &mocks.DepartmentDatabase{}, UDB: &mocks.UserDatabase{}, Env: "development"}

	req := asIdentity(httptest.NewRequest("GET", "/api/v1/complaints/stats", nil),
		models.Identity{ID: primitive.NewObjectID(), Role: models.RoleDepartment})
	rr := httptest.NewRecorder()

	c.ComplaintStatsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var stats models.ComplaintStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, int64(0), stats.TotalComplaints)
}
