package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department holds the structure for the departments collection in mongo.
// The three statistics counters are maintained by the complaint lifecycle
// (creation bumps totalComplaints, resolution bumps resolvedComplaints and
// folds the resolution time into the running average).
type Department struct {
	ID                 primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name               string               `json:"name" bson:"name"`
	Description        string               `json:"description" bson:"description"`
	Email              string               `json:"email" bson:"email"`
	Phone              string               `json:"phone" bson:"phone"`
	Address            string               `json:"address" bson:"address"`
	Head               primitive.ObjectID   `json:"head,omitempty" bson:"head,omitempty"`
	AssignedStaff      []primitive.ObjectID `json:"assignedStaff" bson:"assignedStaff"`
	Categories         []string             `json:"categories" bson:"categories"`
	TotalComplaints    int64                `json:"totalComplaints" bson:"totalComplaints"`
	ResolvedComplaints int64                `json:"resolvedComplaints" bson:"resolvedComplaints"`
	AvgResolutionTime  float64              `json:"avgResolutionTime" bson:"avgResolutionTime"`
	IsActive           bool                 `json:"isActive" bson:"isActive"`
	CreatedAt          time.Time            `json:"createdAt" bson:"createdAt"`
}

// DepartmentSummary is the populated slice of a department embedded in
// complaint and user responses.
type DepartmentSummary struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone string             `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Summary projects the populated fields of a department.
func (d Department) Summary() DepartmentSummary {
	return DepartmentSummary{ID: d.ID, Name: d.Name, Email: d.Email, Phone: d.Phone}
}

// DepartmentStats are the live per-department counts computed for the
// admin department listing. These are recounted from the complaints
// collection, not read from the cached counters.
type DepartmentStats struct {
	StaffCount           int64 `json:"staffCount"`
	TotalComplaints      int64 `json:"totalComplaints"`
	ResolvedComplaints   int64 `json:"resolvedComplaints"`
	PendingComplaints    int64 `json:"pendingComplaints"`
	InProgressComplaints int64 `json:"inProgressComplaints"`
	ResolutionRate       int   `json:"resolutionRate"`
}

// DepartmentWithStats is a department listing row enriched with live stats.
// TotalComplaints and ResolvedComplaints on the embedded Department carry
// the live counts in this context, overwriting the cached counters.
type DepartmentWithStats struct {
	Department           `bson:",inline"`
	StaffCount           int64 `json:"staffCount" bson:"-"`
	PendingComplaints    int64 `json:"pendingComplaints" bson:"-"`
	InProgressComplaints int64 `json:"inProgressComplaints" bson:"-"`
	ResolutionRate       int   `json:"resolutionRate" bson:"-"`
}

// Apply copies a computed stats block onto the listing row.
func (d *DepartmentWithStats) Apply(s DepartmentStats) {
	d.StaffCount = s.StaffCount
	d.TotalComplaints = s.TotalComplaints
	d.ResolvedComplaints = s.ResolvedComplaints
	d.PendingComplaints = s.PendingComplaints
	d.InProgressComplaints = s.InProgressComplaints
	d.ResolutionRate = s.ResolutionRate
}
