package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
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

// Admin is the user-management and reporting handler
type Admin struct {
	UDB databases.UserDatabase
	DDB databases.DepartmentDatabase
	CDB databases.ComplaintDatabase
	Env string
}

// UsersHandler lists users with their department reference populated
func (a Admin) UsersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Env)
		return
	}
	if !policy.CanManageUsers(identity) {
		config.WriteError(w, models.ErrForbidden, a.Env)
		return
	}

	filter := bson.M{}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := models.ParseRole(raw)
		if err != nil {
			config.WriteError(w, err, a.Env)
			return
		}
		filter["role"] = role
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := a.UDB.Find(ctx, filter, databases.PaginatedOpts(limit, page))
	if err != nil {
		config.ErrorStatus("failed to list users", http.StatusInternalServerError, w, err)
		return
	}

	deptIDs := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		if !u.Department.IsZero() {
			deptIDs = append(deptIDs, u.Department)
		}
	}
	departments := map[primitive.ObjectID]models.DepartmentSummary{}
	if len(deptIDs) > 0 {
		found, err := a.DDB.Find(ctx, bson.M{"_id": bson.M{"$in": deptIDs}})
		if err != nil {
			config.ErrorStatus("failed to load departments", http.StatusInternalServerError, w, err)
			return
		}
		for _, d := range found {
			departments[d.ID] = d.Summary()
		}
	}

	out := make([]models.UserWithDepartment, 0, len(users))
	for _, u := range users {
		row := models.UserWithDepartment{User: u}
		if s, ok := departments[u.Department]; ok {
			summary := s
			row.Department = &summary
		}
		out = append(out, row)
	}
	_ = json.NewEncoder(w).Encode(out)
}

type updateUserStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// UpdateUserStatusHandler toggles a user's active flag. The last active
// admin can never be deactivated.
func (a Admin) UpdateUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Env)
		return
	}
	if !policy.CanManageUsers(identity) {
		config.WriteError(w, models.ErrForbidden, a.Env)
		return
	}

	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["user_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, a.Env)
		return
	}

	var req updateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.UDB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.WriteError(w, err, a.Env)
		return
	}

	if !req.IsActive && user.Role == models.RoleAdmin {
		admins, err := a.UDB.CountDocuments(ctx, bson.M{"role": models.RoleAdmin, "isActive": true})
		if err != nil {
			config.ErrorStatus("failed to count admins", http.StatusInternalServerError, w, err)
			return
		}
		if admins <= 1 {
			verr := models.NewValidationError("isActive")
			verr.Message = "Cannot deactivate the only admin user"
			config.WriteError(w, verr, a.Env)
			return
		}
	}

	if _, err := a.UDB.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"isActive": req.IsActive}}); err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}
	user.IsActive = req.IsActive
	_ = json.NewEncoder(w).Encode(user)
}

// DeleteUserHandler removes a user. The only admin can never be deleted,
// and a citizen with unresolved complaints is kept.
func (a Admin) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Env)
		return
	}
	if !policy.CanManageUsers(identity) {
		config.WriteError(w, models.ErrForbidden, a.Env)
		return
	}

	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["user_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, a.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.UDB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.WriteError(w, err, a.Env)
		return
	}

	// deleting an inactive admin cannot leave the system without an
	// active one
	if user.Role == models.RoleAdmin && user.IsActive {
		admins, err := a.UDB.CountDocuments(ctx, bson.M{"role": models.RoleAdmin, "isActive": true})
		if err != nil {
			config.ErrorStatus("failed to count admins", http.StatusInternalServerError, w, err)
			return
		}
		if admins <= 1 {
			verr := models.NewValidationError("user")
			verr.Message = "Cannot delete the only admin user"
			config.WriteError(w, verr, a.Env)
			return
		}
	}

	if user.Role == models.RoleCitizen {
		active, err := a.CDB.CountDocuments(ctx, bson.M{
			"citizen": userID,
			"status":  bson.M{"$in": bson.A{models.StatusPending, models.StatusInProgress}},
		})
		if err != nil {
			config.ErrorStatus("failed to check user complaints", http.StatusInternalServerError, w, err)
			return
		}
		if active > 0 {
			verr := models.NewValidationError("user")
			verr.Message = "cannot delete a citizen with active complaints"
			config.WriteError(w, verr, a.Env)
			return
		}
	}

	if _, err := a.UDB.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		config.ErrorStatus("failed to delete user", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("user deleted", "userID", userID.Hex())

	_ = json.NewEncoder(w).Encode(map[string]string{"message": "user deleted"})
}

// SystemAnalyticsHandler assembles the admin reporting view. The sub-queries
// run concurrently and a failure in any of them fails the whole response.
func (a Admin) SystemAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Env)
		return
	}
	if !policy.CanManageUsers(identity) {
		config.WriteError(w, models.ErrForbidden, a.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now().UTC()
	analytics := models.SystemAnalytics{
		UsersByRole:          []models.RoleCount{},
		TopDepartments:       []models.TopDepartment{},
		MonthlyTrend:         []models.MonthlyTrendPoint{},
		CategoryDistribution: []models.CategoryCount{},
		Timestamp:            now,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.UDB.Aggregate(gctx, []bson.M{
			{"$group": bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}},
		}, &analytics.UsersByRole)
	})
	g.Go(func() error {
		n, err := a.DDB.CountDocuments(gctx, bson.M{"isActive": true})
		analytics.TotalDepartments = n
		return err
	})
	g.Go(func() error {
		n, err := a.CDB.CountDocuments(gctx, bson.M{})
		analytics.TotalComplaints = n
		return err
	})
	g.Go(func() error {
		n, err := a.CDB.CountDocuments(gctx, bson.M{
			"status":                       models.StatusResolved,
			"resolutionDetails.resolvedAt": bson.M{"$gte": now.AddDate(0, 0, -30)},
		})
		analytics.RecentResolved = n
		return err
	})
	g.Go(func() error {
		var rows []models.ResolutionStats
		err := a.CDB.Aggregate(gctx, []bson.M{
			{"$match": bson.M{"status": models.StatusResolved, "resolutionDetails.resolvedAt": bson.M{"$exists": true}}},
			{"$project": bson.M{"days": bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{"$resolutionDetails.resolvedAt", "$createdAt"}},
				1000 * 60 * 60 * 24,
			}}}},
			{"$group": bson.M{
				"_id":     nil,
				"avgTime": bson.M{"$avg": "$days"},
				"minTime": bson.M{"$min": "$days"},
				"maxTime": bson.M{"$max": "$days"},
			}},
		}, &rows)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			analytics.ResolutionStats = rows[0]
		}
		return nil
	})
	g.Go(func() error {
		return a.DDB.Aggregate(gctx, []bson.M{
			{"$match": bson.M{"isActive": true}},
			{"$project": bson.M{
				"name":               1,
				"email":              1,
				"totalComplaints":    1,
				"resolvedComplaints": 1,
				"resolutionRate": bson.M{"$cond": bson.A{
					bson.M{"$gt": bson.A{"$totalComplaints", 0}},
					bson.M{"$multiply": bson.A{
						bson.M{"$divide": bson.A{"$resolvedComplaints", "$totalComplaints"}},
						100,
					}},
					0,
				}},
			}},
			{"$sort": bson.M{"resolutionRate": -1}},
			{"$limit": 5},
		}, &analytics.TopDepartments)
	})
	g.Go(func() error {
		trend, err := a.monthlyTrend(gctx, now)
		if err != nil {
			return err
		}
		analytics.MonthlyTrend = trend
		return nil
	})
	g.Go(func() error {
		return a.CDB.Aggregate(gctx, []bson.M{
			{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
			{"$sort": bson.M{"count": -1}},
			{"$limit": 10},
		}, &analytics.CategoryDistribution)
	})

	if err := g.Wait(); err != nil {
		config.ErrorStatus("failed to compute analytics", http.StatusInternalServerError, w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(analytics)
}

type monthlyTrendRow struct {
	ID       models.YearMonth `bson:"_id"`
	Count    int64            `bson:"count"`
	Resolved int64            `bson:"resolved"`
	Pending  int64            `bson:"pending"`
}

func (a Admin) monthlyTrend(ctx context.Context, now time.Time) ([]models.MonthlyTrendPoint, error) {
	var rows []monthlyTrendRow
	err := a.CDB.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"createdAt": bson.M{"$gte": now.AddDate(0, -6, 0)}}},
		{"$group": bson.M{
			"_id":   bson.M{"year": bson.M{"$year": "$createdAt"}, "month": bson.M{"$month": "$createdAt"}},
			"count": bson.M{"$sum": 1},
			"resolved": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.StatusResolved}}, 1, 0,
			}}},
			"pending": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.StatusPending}}, 1, 0,
			}}},
		}},
		{"$sort": bson.M{"_id.year": 1, "_id.month": 1}},
	}, &rows)
	if err != nil {
		return nil, err
	}

	trend := make([]models.MonthlyTrendPoint, 0, len(rows))
	for _, row := range rows {
		trend = append(trend, models.MonthlyTrendPoint{
			Month:      fmt.Sprintf("%04d-%02d", row.ID.Year, row.ID.Month),
			Complaints: row.Count,
			Resolved:   row.Resolved,
			Pending:    row.Pending,
		})
	}
	return trend, nil
}

// DashboardStatsHandler returns the admin dashboard snapshot. Each block is
// independent, a failing sub-query degrades to its zero value instead of
// failing the dashboard.
func (a Admin) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Env)
		return
	}
	if !policy.CanManageUsers(identity) {
		config.WriteError(w, models.ErrForbidden, a.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sixtyDaysAgo := now.AddDate(0, 0, -60)

	stats := models.DashboardStats{RecentActivity: []models.PopulatedComplaint{}}

	count := func(n int64, err error, what string) int64 {
		if err != nil {
			zap.S().With(err).Warnw("dashboard count failed, zero-filling", "count", what)
			return 0
		}
		return n
	}

	var wg errgroup.Group

	wg.Go(func() error {
		n, err := a.UDB.CountDocuments(ctx, bson.M{})
		stats.Totals.Users = count(n, err, "users")
		return nil
	})
	wg.Go(func() error {
		n, err := a.CDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": midnight}})
		stats.Totals.ComplaintsToday = count(n, err, "complaintsToday")
		return nil
	})
	wg.Go(func() error {
		n, err := a.CDB.CountDocuments(ctx, bson.M{"status": models.StatusPending})
		stats.Totals.Pending = count(n, err, "pending")
		return nil
	})
	wg.Go(func() error {
		n, err := a.CDB.CountDocuments(ctx, bson.M{
			"status":                       models.StatusResolved,
			"resolutionDetails.resolvedAt": bson.M{"$gte": midnight},
		})
		stats.Totals.ResolvedToday = count(n, err, "resolvedToday")
		return nil
	})
	wg.Go(func() error {
		cur, err1 := a.UDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": thirtyDaysAgo}})
		prior, err2 := a.UDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": sixtyDaysAgo, "$lt": thirtyDaysAgo}})
		curN := count(cur, err1, "userGrowth")
		priorN := count(prior, err2, "userGrowthPrior")
		stats.Growth.Users = curN
		stats.Growth.UsersPercentage = growthPercentage(curN, priorN)
		return nil
	})
	wg.Go(func() error {
		cur, err1 := a.CDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": thirtyDaysAgo}})
		prior, err2 := a.CDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": sixtyDaysAgo, "$lt": thirtyDaysAgo}})
		curN := count(cur, err1, "complaintGrowth")
		priorN := count(prior, err2, "complaintGrowthPrior")
		stats.Growth.Complaints = curN
		stats.Growth.ComplaintsPercentage = growthPercentage(curN, priorN)
		return nil
	})
	wg.Go(func() error {
		opts := databases.PaginatedOpts(10, 1)
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
		recent, err := a.CDB.Find(ctx, bson.M{}, opts)
		if err != nil {
			zap.S().With(err).Warn("recent activity query failed, zero-filling")
			return nil
		}
		populated, err := (Complaint{DB: a.CDB, DDB: a.DDB, UDB: a.UDB}).populate(ctx, recent)
		if err != nil {
			zap.S().With(err).Warn("recent activity populate failed, zero-filling")
			return nil
		}
		stats.RecentActivity = populated
		return nil
	})

	_ = wg.Wait()

	_ = json.NewEncoder(w).Encode(stats)
}

// growthPercentage compares the trailing window against the prior one. A
// zero prior period reports 0% rather than dividing by zero.
func growthPercentage(current, prior int64) int {
	if prior == 0 {
		return 0
	}
	return int(float64(current-prior) / float64(prior) * 100)
}
