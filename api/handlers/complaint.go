package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civiclens/civic-complaints-api/api"
	"github.com/civiclens/civic-complaints-api/api/policy"
	"github.com/civiclens/civic-complaints-api/config"
	"github.com/civiclens/civic-complaints-api/databases"
	"github.com/civiclens/civic-complaints-api/models"
)

const maxComplaintImages = 5

// Complaint is the complaint lifecycle handler, it holds the db connections
// and the side-effect collaborators used on creation and resolution.
type Complaint struct {
	DB       databases.ComplaintDatabase
	DDB      databases.DepartmentDatabase
	UDB      databases.UserDatabase
	Uploader Uploader
	Mailer   Mailer
	Hub      *Hub
	Env      string
}

type createComplaintRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Location    models.Location `json:"location"`
	Images      []string        `json:"images"`
}

// CreateComplaintHandler files a new complaint: canonicalizes the category,
// derives priority, routes to the first active department covering the
// category and stores any attached images.
func (c Complaint) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}

	var req createComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	var fields []string
	if t := strings.TrimSpace(req.Title); t == "" || len(t) > 200 {
		fields = append(fields, "title")
	}
	if d := strings.TrimSpace(req.Description); d == "" || len(d) > 1000 {
		fields = append(fields, "description")
	}
	if strings.TrimSpace(req.Location.Address) == "" {
		fields = append(fields, "location.address")
	}
	if len(req.Images) > maxComplaintImages {
		fields = append(fields, "images")
	}
	category, err := models.MatchCategory(req.Category)
	if err != nil {
		fields = append(fields, "category")
	}
	if len(fields) > 0 {
		// report every violated field in one response
		verr := models.NewValidationError(fields...)
		if err != nil {
			verr.Message = err.Error()
		}
		config.WriteError(w, verr, c.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now().UTC()
	complaint := models.Complaint{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Location:    req.Location,
		Citizen:     identity.ID,
		Status:      models.StatusPending,
		Priority:    models.PriorityForCategory(category),
		Images:      []models.ComplaintImage{},
		Comments:    []models.Comment{},
		Upvotes:     []primitive.ObjectID{},
		Downvotes:   []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// first active department covering the category, none found leaves the
	// complaint unassigned; any other lookup failure aborts the create
	dept, err := c.DDB.FindOne(ctx, bson.M{"isActive": true, "categories": category})
	switch {
	case err == nil && dept != nil:
		complaint.Department = dept.ID
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		config.ErrorStatus("failed to route complaint", http.StatusInternalServerError, w, err)
		return
	}

	if c.Uploader != nil {
		for _, data := range req.Images {
			img, err := c.Uploader.Upload(ctx, data)
			if err != nil {
				config.ErrorStatus("failed to store complaint image", http.StatusInternalServerError, w, err)
				return
			}
			complaint.Images = append(complaint.Images, img)
		}
	}

	if _, err := c.DB.InsertOne(ctx, complaint); err != nil {
		config.ErrorStatus("failed to create complaint", http.StatusInternalServerError, w, err)
		return
	}

	if !complaint.Department.IsZero() {
		_, err := c.DDB.UpdateOne(ctx, bson.M{"_id": complaint.Department},
			bson.M{"$inc": bson.M{"totalComplaints": 1}})
		if err != nil {
			zap.S().With(err).Error("failed to bump department complaint counter")
		}
	}

	c.Hub.Publish(Event{
		Type:       EventComplaintCreated,
		Complaint:  complaint.ID,
		Department: complaint.Department,
		Category:   complaint.Category,
		Status:     complaint.Status,
		Priority:   complaint.Priority,
	})

	populated, err := c.populate(ctx, []models.Complaint{complaint})
	if err != nil {
		config.ErrorStatus("failed to load complaint references", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(populated[0])
}

// ComplaintHandler lists complaints visible to the caller. Citizens see
// their own, department staff their department's, admins everything.
func (c Complaint) ComplaintHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}

	filter := bson.M{}
	switch identity.Role {
	case models.RoleCitizen:
		filter["citizen"] = identity.ID
	case models.RoleDepartment:
		if identity.Department.IsZero() {
			// staff without a department assignment sees nothing
			_ = json.NewEncoder(w).Encode([]models.PopulatedComplaint{})
			return
		}
		filter["department"] = identity.Department
	case models.RoleAdmin:
		if raw := r.URL.Query().Get("department"); raw != "" {
			deptID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				config.WriteError(w, models.NewValidationError("department"), c.Env)
				return
			}
			filter["department"] = deptID
		}
	default:
		config.WriteError(w, models.ErrForbidden, c.Env)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidStatus(status) {
			config.WriteError(w, models.NewValidationError("status"), c.Env)
			return
		}
		filter["status"] = status
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := models.MatchCategory(raw)
		if err != nil {
			config.WriteError(w, err, c.Env)
			return
		}
		filter["category"] = category
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	sortParam := r.URL.Query().Get("sort")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var complaints []models.Complaint
	var err error
	if sortParam == "priority" {
		// a string sort on the stored priority would order alphabetically,
		// so rank is projected in the pipeline and sorted before any
		// pagination stage is applied
		err = c.DB.Aggregate(ctx, priorityRankPipeline(filter, limit, page), &complaints)
	} else {
		opts := databases.PaginatedOpts(limit, page)
		if sortParam == "oldest" {
			opts.SetSort(bson.D{{Key: "createdAt", Value: 1}})
		} else {
			opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
		}
		complaints, err = c.DB.Find(ctx, filter, opts)
	}
	if err != nil {
		config.ErrorStatus("failed to list complaints", http.StatusInternalServerError, w, err)
		return
	}

	populated, err := c.populate(ctx, complaints)
	if err != nil {
		config.ErrorStatus("failed to load complaint references", http.StatusInternalServerError, w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(populated)
}

// priorityRankPipeline orders by priority rank then recency inside the
// query so the ordering composes with the pagination stages.
func priorityRankPipeline(filter bson.M, limit, page int) []bson.M {
	branches := make([]bson.M, 0, len(models.PriorityRank))
	for _, p := range []string{
		models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityLow,
	} {
		branches = append(branches, bson.M{
			"case": bson.M{"$eq": bson.A{"$priority", p}},
			"then": models.PriorityRank[p],
		})
	}
	pipeline := []bson.M{
		{"$match": filter},
		{"$addFields": bson.M{"priorityRank": bson.M{"$switch": bson.M{
			"branches": branches,
			"default":  0,
		}}}},
		{"$sort": bson.D{{Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: -1}}},
		{"$project": bson.M{"priorityRank": 0}},
	}
	return append(pipeline, databases.PaginationStages(limit, page)...)
}

// ComplaintByIDHandler returns a single complaint if the caller may read it
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}

	complaintID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, c.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaint, err := c.DB.FindOne(ctx, bson.M{"_id": complaintID})
	if err != nil {
		config.WriteError(w, err, c.Env)
		return
	}
	if !policy.CanReadComplaint(identity, complaint) {
		config.WriteError(w, models.ErrForbidden, c.Env)
		return
	}

	populated, err := c.populate(ctx, []models.Complaint{*complaint})
	if err != nil {
		config.ErrorStatus("failed to load complaint references", http.StatusInternalServerError, w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(populated[0])
}

type updateStatusRequest struct {
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolutionNotes"`
	BeforeImage     string `json:"beforeImage"`
	AfterImage      string `json:"afterImage"`
}

// UpdateComplaintStatusHandler moves a complaint through its lifecycle.
// Resolved and Rejected are terminal. Resolving records resolution details
// and folds the resolution time into the department's running average.
func (c Complaint) UpdateComplaintStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}

	complaintID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, c.Env)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidStatus(req.Status) {
		config.WriteError(w, models.NewValidationError("status"), c.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaint, err := c.DB.FindOne(ctx, bson.M{"_id": complaintID})
	if err != nil {
		config.WriteError(w, err, c.Env)
		return
	}
	if !policy.CanUpdateStatus(identity, complaint) {
		config.WriteError(w, models.ErrForbidden, c.Env)
		return
	}
	if models.TerminalStatus(complaint.Status) {
		verr := models.NewValidationError("status")
		verr.Message = "complaint is already " + complaint.Status + " and cannot be updated"
		config.WriteError(w, verr, c.Env)
		return
	}

	now := time.Now().UTC()
	set := bson.M{"status": req.Status, "updatedAt": now}

	resolving := req.Status == models.StatusResolved && complaint.Status != models.StatusResolved
	if resolving {
		complaint.ResolutionDetails = &models.ResolutionDetails{
			ResolvedBy:      identity.ID,
			ResolutionNotes: strings.TrimSpace(req.ResolutionNotes),
			ResolvedAt:      now,
			BeforeImage:     req.BeforeImage,
			AfterImage:      req.AfterImage,
		}
		set["resolutionDetails"] = complaint.ResolutionDetails
	}

	if _, err := c.DB.UpdateOne(ctx, bson.M{"_id": complaintID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}
	complaint.Status = req.Status
	complaint.UpdatedAt = now

	if resolving && !complaint.Department.IsZero() {
		hours := now.Sub(complaint.CreatedAt).Hours()
		if err := c.recordResolution(ctx, complaint.Department, hours); err != nil {
			zap.S().With(err).Error("failed to update department resolution stats")
		}
	}

	if resolving {
		c.notifyResolution(*complaint)
	}

	c.Hub.Publish(Event{
		Type:       EventComplaintStatus,
		Complaint:  complaint.ID,
		Department: complaint.Department,
		Category:   complaint.Category,
		Status:     complaint.Status,
		Priority:   complaint.Priority,
	})

	populated, err := c.populate(ctx, []models.Complaint{*complaint})
	if err != nil {
		config.ErrorStatus("failed to load complaint references", http.StatusInternalServerError, w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(populated[0])
}

// recordResolution folds one resolution into the department counters using a
// single pipeline update. The read and the write happen inside mongo, so two
// concurrent resolutions in the same department cannot lose an update.
func (c Complaint) recordResolution(ctx context.Context, departmentID primitive.ObjectID, hours float64) error {
	update := []bson.M{{
		"$set": bson.M{
			"resolvedComplaints": bson.M{"$add": bson.A{"$resolvedComplaints", 1}},
			"avgResolutionTime": bson.M{"$divide": bson.A{
				bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{"$avgResolutionTime", "$resolvedComplaints"}},
					hours,
				}},
				bson.M{"$add": bson.A{"$resolvedComplaints", 1}},
			}},
		},
	}}
	_, err := c.DDB.UpdateOne(ctx, bson.M{"_id": departmentID}, update)
	return err
}

func (c Complaint) notifyResolution(complaint models.Complaint) {
	if c.Mailer == nil {
		return
	}
	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	citizen, err := c.UDB.FindOne(ctx, bson.M{"_id": complaint.Citizen})
	if err != nil {
		zap.S().With(err).Warn("citizen lookup failed, skipping resolution notice")
		return
	}
	go func() {
		if err := c.Mailer.SendResolutionNotice(*citizen, complaint); err != nil {
			zap.S().With(err).Warn("failed to send resolution notice")
		}
	}()
}

type addCommentRequest struct {
	Text string `json:"text"`
}

// AddCommentHandler appends a comment. Comments from staff and admins are
// flagged official.
func (c Complaint) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}

	complaintID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, c.Env)
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		config.WriteError(w, models.NewValidationError("text"), c.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaint, err := c.DB.FindOne(ctx, bson.M{"_id": complaintID})
	if err != nil {
		config.WriteError(w, err, c.Env)
		return
	}
	if !policy.CanComment(identity, complaint) {
		config.WriteError(w, models.ErrForbidden, c.Env)
		return
	}

	comment := models.Comment{
		ID:         primitive.NewObjectID(),
		User:       identity.ID,
		Text:       strings.TrimSpace(req.Text),
		CreatedAt:  time.Now().UTC(),
		IsOfficial: identity.Role != models.RoleCitizen,
	}

	_, err = c.DB.UpdateOne(ctx, bson.M{"_id": complaintID}, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.CreatedAt},
	})
	if err != nil {
		config.ErrorStatus("failed to add comment", http.StatusInternalServerError, w, err)
		return
	}

	author, err := c.UDB.FindOne(ctx, bson.M{"_id": identity.ID})
	populated := models.PopulatedComment{Comment: comment}
	if err == nil {
		summary := author.Summary()
		populated.Author = &summary
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(populated)
}

type voteRequest struct {
	VoteType string `json:"voteType"`
}

// VoteComplaintHandler applies toggle vote semantics and returns the
// updated counts only.
func (c Complaint) VoteComplaintHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}

	complaintID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, c.Env)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaint, err := c.DB.FindOne(ctx, bson.M{"_id": complaintID})
	if err != nil {
		config.WriteError(w, err, c.Env)
		return
	}
	if !policy.CanVote(identity, complaint) {
		config.WriteError(w, models.ErrForbidden, c.Env)
		return
	}

	if err := complaint.ApplyVote(identity.ID, req.VoteType); err != nil {
		config.WriteError(w, err, c.Env)
		return
	}

	_, err = c.DB.UpdateOne(ctx, bson.M{"_id": complaintID}, bson.M{"$set": bson.M{
		"upvotes":   complaint.Upvotes,
		"downvotes": complaint.Downvotes,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		config.ErrorStatus("failed to record vote", http.StatusInternalServerError, w, err)
		return
	}

	_ = json.NewEncoder(w).Encode(models.VoteCounts{
		Upvotes:   len(complaint.Upvotes),
		Downvotes: len(complaint.Downvotes),
	})
}

// ComplaintStatsHandler returns counts by status, category and month plus
// the average resolution time. Department staff get their own department's
// slice, admins the whole system.
func (c Complaint) ComplaintStatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, c.Env)
		return
	}
	if !policy.CanViewStats(identity) {
		config.WriteError(w, models.ErrForbidden, c.Env)
		return
	}

	match := bson.M{}
	if scoped, department := policy.StatsScope(identity); scoped {
		match["department"] = department
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	stats := models.ComplaintStats{
		ComplaintsByStatus:   []models.StatusCount{},
		ComplaintsByCategory: []models.CategoryCount{},
		ComplaintsByMonth:    []models.MonthCount{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := c.DB.CountDocuments(gctx, match)
		stats.TotalComplaints = total
		return err
	})
	g.Go(func() error {
		return c.DB.Aggregate(gctx, []bson.M{
			{"$match": match},
			{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
		}, &stats.ComplaintsByStatus)
	})
	g.Go(func() error {
		return c.DB.Aggregate(gctx, []bson.M{
			{"$match": match},
			{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
		}, &stats.ComplaintsByCategory)
	})
	g.Go(func() error {
		return c.DB.Aggregate(gctx, []bson.M{
			{"$match": match},
			{"$group": bson.M{
				"_id":   bson.M{"year": bson.M{"$year": "$createdAt"}, "month": bson.M{"$month": "$createdAt"}},
				"count": bson.M{"$sum": 1},
			}},
			{"$sort": bson.M{"_id.year": 1, "_id.month": 1}},
		}, &stats.ComplaintsByMonth)
	})
	g.Go(func() error {
		resolvedMatch := bson.M{"status": models.StatusResolved, "resolutionDetails.resolvedAt": bson.M{"$exists": true}}
		for k, v := range match {
			resolvedMatch[k] = v
		}
		var rows []struct {
			Avg float64 `bson:"avg"`
		}
		err := c.DB.Aggregate(gctx, []bson.M{
			{"$match": resolvedMatch},
			{"$project": bson.M{"hours": bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{"$resolutionDetails.resolvedAt", "$createdAt"}},
				1000 * 60 * 60,
			}}}},
			{"$group": bson.M{"_id": nil, "avg": bson.M{"$avg": "$hours"}}},
		}, &rows)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			stats.AvgResolutionTime = rows[0].Avg
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		config.ErrorStatus("failed to compute complaint stats", http.StatusInternalServerError, w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(stats)
}

// populate expands citizen, department, assignee and comment author
// references with two batched lookups instead of one query per complaint.
func (c Complaint) populate(ctx context.Context, complaints []models.Complaint) ([]models.PopulatedComplaint, error) {
	userIDs := make([]primitive.ObjectID, 0, len(complaints)*2)
	deptIDs := make([]primitive.ObjectID, 0, len(complaints))
	for _, cpl := range complaints {
		userIDs = append(userIDs, cpl.Citizen)
		if !cpl.AssignedTo.IsZero() {
			userIDs = append(userIDs, cpl.AssignedTo)
		}
		if !cpl.Department.IsZero() {
			deptIDs = append(deptIDs, cpl.Department)
		}
		for _, cm := range cpl.Comments {
			userIDs = append(userIDs, cm.User)
		}
	}

	users := map[primitive.ObjectID]models.UserSummary{}
	if len(userIDs) > 0 {
		found, err := c.UDB.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			users[u.ID] = u.Summary()
		}
	}

	departments := map[primitive.ObjectID]models.DepartmentSummary{}
	if len(deptIDs) > 0 {
		found, err := c.DDB.Find(ctx, bson.M{"_id": bson.M{"$in": deptIDs}})
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			departments[d.ID] = d.Summary()
		}
	}

	out := make([]models.PopulatedComplaint, 0, len(complaints))
	for _, cpl := range complaints {
		p := models.PopulatedComplaint{
			Complaint: cpl,
			Comments:  make([]models.PopulatedComment, 0, len(cpl.Comments)),
		}
		for _, cm := range cpl.Comments {
			pc := models.PopulatedComment{Comment: cm}
			if s, ok := users[cm.User]; ok {
				summary := s
				pc.Author = &summary
			}
			p.Comments = append(p.Comments, pc)
		}
		if s, ok := users[cpl.Citizen]; ok {
			summary := s
			p.CitizenDetail = &summary
		}
		if s, ok := users[cpl.AssignedTo]; ok {
			summary := s
			p.AssignedToDetail = &summary
		}
		if s, ok := departments[cpl.Department]; ok {
			summary := s
			p.DepartmentDetail = &summary
		}
		out = append(out, p)
	}
	return out, nil
}
