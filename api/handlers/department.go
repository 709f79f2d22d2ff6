package handlers

import (
	"context"
	"encoding/json"
	"net/http"
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

// Department is the admin department-management handler
type Department struct {
	DB  databases.DepartmentDatabase
	UDB databases.UserDatabase
	CDB databases.ComplaintDatabase
	Env string
}

// DepartmentsWithStatsHandler lists every department with live counts
// recomputed from the users and complaints collections. A failure computing
// one department's stats degrades that row to zeros instead of failing the
// whole listing.
func (d Department) DepartmentsWithStatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, d.Env)
		return
	}
	if !policy.CanManageDepartments(identity) {
		config.WriteError(w, models.ErrForbidden, d.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	departments, err := d.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to list departments", http.StatusInternalServerError, w, err)
		return
	}

	out := make([]models.DepartmentWithStats, len(departments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range departments {
		i := i
		g.Go(func() error {
			row := models.DepartmentWithStats{Department: departments[i]}
			stats, err := d.computeStats(gctx, departments[i].ID)
			if err != nil {
				zap.S().With(err).Warnw("department stats failed, zero-filling",
					"departmentID", departments[i].ID.Hex())
				stats = models.DepartmentStats{}
			}
			row.Apply(stats)
			out[i] = row
			return nil
		})
	}
	_ = g.Wait()

	_ = json.NewEncoder(w).Encode(out)
}

func (d Department) computeStats(ctx context.Context, departmentID primitive.ObjectID) (models.DepartmentStats, error) {
	var stats models.DepartmentStats

	staff, err := d.UDB.CountDocuments(ctx, bson.M{"department": departmentID, "role": models.RoleDepartment})
	if err != nil {
		return stats, err
	}
	stats.StaffCount = staff

	counts := []struct {
		filter bson.M
		dest   *int64
	}{
		{bson.M{"department": departmentID}, &stats.TotalComplaints},
		{bson.M{"department": departmentID, "status": models.StatusResolved}, &stats.ResolvedComplaints},
		{bson.M{"department": departmentID, "status": models.StatusPending}, &stats.PendingComplaints},
		{bson.M{"department": departmentID, "status": models.StatusInProgress}, &stats.InProgressComplaints},
	}
	for _, c := range counts {
		n, err := d.CDB.CountDocuments(ctx, c.filter)
		if err != nil {
			return models.DepartmentStats{}, err
		}
		*c.dest = n
	}

	if stats.TotalComplaints > 0 {
		stats.ResolutionRate = int(float64(stats.ResolvedComplaints)/float64(stats.TotalComplaints)*100 + 0.5)
	}
	return stats, nil
}

type createDepartmentRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Categories  []string `json:"categories"`
}

// CreateDepartmentHandler creates a department. Name and email are unique
// case-insensitively, a clash reports which field conflicted.
func (d Department) CreateDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, d.Env)
		return
	}
	if !policy.CanManageDepartments(identity) {
		config.WriteError(w, models.ErrForbidden, d.Env)
		return
	}

	var req createDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)

	var fields []string
	if name == "" {
		fields = append(fields, "name")
	}
	if description == "" {
		fields = append(fields, "description")
	}
	if email == "" {
		fields = append(fields, "email")
	}
	if phone == "" {
		fields = append(fields, "phone")
	}
	categories := make([]string, 0, len(req.Categories))
	for _, raw := range req.Categories {
		canonical, err := models.MatchCategory(raw)
		if err != nil {
			fields = append(fields, "categories")
			break
		}
		categories = append(categories, canonical)
	}
	if len(fields) > 0 {
		config.WriteError(w, models.NewValidationError(fields...), d.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if conflict, err := d.uniquenessConflict(ctx, name, email, primitive.NilObjectID); err != nil {
		config.ErrorStatus("failed to check department uniqueness", http.StatusInternalServerError, w, err)
		return
	} else if conflict != "" {
		config.WriteError(w, &models.ConflictError{Resource: "department", Field: conflict}, d.Env)
		return
	}

	department := models.Department{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Description:   description,
		Email:         email,
		Phone:         phone,
		Address:       strings.TrimSpace(req.Address),
		AssignedStaff: []primitive.ObjectID{},
		Categories:    categories,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}

	if _, err := d.DB.InsertOne(ctx, department); err != nil {
		config.ErrorStatus("failed to create department", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("department created", "name", department.Name)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(department)
}

// uniquenessConflict returns "name" or "email" when another department
// already holds the value, case-insensitively. exclude skips the department
// being updated.
func (d Department) uniquenessConflict(ctx context.Context, name, email string, exclude primitive.ObjectID) (string, error) {
	base := bson.M{}
	if !exclude.IsZero() {
		base["_id"] = bson.M{"$ne": exclude}
	}

	if name != "" {
		filter := bson.M{"name": bson.M{"$regex": "^" + escapeRegex(name) + "$", "$options": "i"}}
		for k, v := range base {
			filter[k] = v
		}
		if _, err := d.DB.FindOne(ctx, filter); err == nil {
			return "name", nil
		} else if err != models.ErrNotFound {
			return "", err
		}
	}
	if email != "" {
		filter := bson.M{"email": bson.M{"$regex": "^" + escapeRegex(email) + "$", "$options": "i"}}
		for k, v := range base {
			filter[k] = v
		}
		if _, err := d.DB.FindOne(ctx, filter); err == nil {
			return "email", nil
		} else if err != models.ErrNotFound {
			return "", err
		}
	}
	return "", nil
}

var regexSpecials = ".^$*+?()[]{}|\\"

func escapeRegex(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(regexSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

type updateDepartmentRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Address     *string   `json:"address"`
	Categories  *[]string `json:"categories"`
	IsActive    *bool     `json:"isActive"`
}

// UpdateDepartmentHandler applies a partial update, re-checking uniqueness
// only for the fields being changed.
func (d Department) UpdateDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, d.Env)
		return
	}
	if !policy.CanManageDepartments(identity) {
		config.WriteError(w, models.ErrForbidden, d.Env)
		return
	}

	departmentID, err := primitive.ObjectIDFromHex(mux.Vars(r)["department_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, d.Env)
		return
	}

	var req updateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := d.DB.FindOne(ctx, bson.M{"_id": departmentID}); err != nil {
		config.WriteError(w, err, d.Env)
		return
	}

	set := bson.M{}
	var checkName, checkEmail string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			config.WriteError(w, models.NewValidationError("name"), d.Env)
			return
		}
		set["name"] = name
		checkName = name
	}
	if req.Description != nil {
		set["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			config.WriteError(w, models.NewValidationError("email"), d.Env)
			return
		}
		set["email"] = email
		checkEmail = email
	}
	if req.Phone != nil {
		set["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		set["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Categories != nil {
		categories := make([]string, 0, len(*req.Categories))
		for _, raw := range *req.Categories {
			canonical, err := models.MatchCategory(raw)
			if err != nil {
				config.WriteError(w, err, d.Env)
				return
			}
			categories = append(categories, canonical)
		}
		set["categories"] = categories
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	if len(set) == 0 {
		config.WriteError(w, models.NewValidationError("body"), d.Env)
		return
	}

	if checkName != "" || checkEmail != "" {
		if conflict, err := d.uniquenessConflict(ctx, checkName, checkEmail, departmentID); err != nil {
			config.ErrorStatus("failed to check department uniqueness", http.StatusInternalServerError, w, err)
			return
		} else if conflict != "" {
			config.WriteError(w, &models.ConflictError{Resource: "department", Field: conflict}, d.Env)
			return
		}
	}

	if _, err := d.DB.UpdateOne(ctx, bson.M{"_id": departmentID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update department", http.StatusInternalServerError, w, err)
		return
	}

	department, err := d.DB.FindOne(ctx, bson.M{"_id": departmentID})
	if err != nil {
		config.WriteError(w, err, d.Env)
		return
	}
	_ = json.NewEncoder(w).Encode(department)
}

// DeleteDepartmentHandler removes a department. Deletion is blocked while
// the department still has assigned staff or unresolved complaints.
func (d Department) DeleteDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, d.Env)
		return
	}
	if !policy.CanManageDepartments(identity) {
		config.WriteError(w, models.ErrForbidden, d.Env)
		return
	}

	departmentID, err := primitive.ObjectIDFromHex(mux.Vars(r)["department_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, d.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := d.DB.FindOne(ctx, bson.M{"_id": departmentID}); err != nil {
		config.WriteError(w, err, d.Env)
		return
	}

	staff, err := d.UDB.CountDocuments(ctx, bson.M{"department": departmentID, "role": models.RoleDepartment})
	if err != nil {
		config.ErrorStatus("failed to check department staff", http.StatusInternalServerError, w, err)
		return
	}
	if staff > 0 {
		verr := models.NewValidationError("department")
		verr.Message = "cannot delete a department with assigned staff"
		config.WriteError(w, verr, d.Env)
		return
	}

	active, err := d.CDB.CountDocuments(ctx, bson.M{
		"department": departmentID,
		"status":     bson.M{"$in": bson.A{models.StatusPending, models.StatusInProgress}},
	})
	if err != nil {
		config.ErrorStatus("failed to check department complaints", http.StatusInternalServerError, w, err)
		return
	}
	if active > 0 {
		verr := models.NewValidationError("department")
		verr.Message = "cannot delete a department with active complaints"
		config.WriteError(w, verr, d.Env)
		return
	}

	if _, err := d.DB.DeleteOne(ctx, bson.M{"_id": departmentID}); err != nil {
		config.ErrorStatus("failed to delete department", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("department deleted", "departmentID", departmentID.Hex())

	_ = json.NewEncoder(w).Encode(map[string]string{"message": "department deleted"})
}

type assignStaffRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// AssignStaffHandler attaches a user to a department as staff. Assigning is
// idempotent, the user never appears twice in assignedStaff. Role "head"
// additionally sets the department head.
func (d Department) AssignStaffHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, d.Env)
		return
	}
	if !policy.CanManageDepartments(identity) {
		config.WriteError(w, models.ErrForbidden, d.Env)
		return
	}

	departmentID, err := primitive.ObjectIDFromHex(mux.Vars(r)["department_id"])
	if err != nil {
		config.WriteError(w, models.ErrNotFound, d.Env)
		return
	}

	var req assignStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		config.WriteError(w, models.NewValidationError("userId"), d.Env)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := d.DB.FindOne(ctx, bson.M{"_id": departmentID}); err != nil {
		config.WriteError(w, err, d.Env)
		return
	}
	if _, err := d.UDB.FindOne(ctx, bson.M{"_id": userID}); err != nil {
		config.WriteError(w, err, d.Env)
		return
	}

	userSet := bson.M{"department": departmentID}
	if req.Role != "" && req.Role != "head" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			config.WriteError(w, err, d.Env)
			return
		}
		userSet["role"] = role
	}
	if req.Role == "head" {
		userSet["role"] = models.RoleDepartment
	}

	if _, err := d.UDB.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": userSet}); err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	// $addToSet keeps the assignment idempotent
	deptUpdate := bson.M{"$addToSet": bson.M{"assignedStaff": userID}}
	if req.Role == "head" {
		deptUpdate["$set"] = bson.M{"head": userID}
	}
	if _, err := d.DB.UpdateOne(ctx, bson.M{"_id": departmentID}, deptUpdate); err != nil {
		config.ErrorStatus("failed to update department", http.StatusInternalServerError, w, err)
		return
	}

	department, err := d.DB.FindOne(ctx, bson.M{"_id": departmentID})
	if err != nil {
		config.WriteError(w, err, d.Env)
		return
	}
	_ = json.NewEncoder(w).Encode(department)
}
