package models

import "time"

// StatusCount is one row of a group-by-status aggregation.
type StatusCount struct {
	Status string `json:"_id" bson:"_id"`
	Count  int64  `json:"count" bson:"count"`
}

// CategoryCount is one row of a group-by-category aggregation.
type CategoryCount struct {
	Category string `json:"_id" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// RoleCount is one row of a group-by-role aggregation.
type RoleCount struct {
	Role  Role  `json:"_id" bson:"_id"`
	Count int64 `json:"count" bson:"count"`
}

// YearMonth is the mongo group key for calendar month buckets.
type YearMonth struct {
	Year  int `json:"year" bson:"year"`
	Month int `json:"month" bson:"month"`
}

// MonthCount is one row of the complaints-by-month aggregation, ascending by
// (year, month).
type MonthCount struct {
	ID    YearMonth `json:"_id" bson:"_id"`
	Count int64     `json:"count" bson:"count"`
}

// ComplaintStats is the stats endpoint response for department staff and
// admins.
type ComplaintStats struct {
	TotalComplaints      int64           `json:"totalComplaints"`
	ComplaintsByStatus   []StatusCount   `json:"complaintsByStatus"`
	ComplaintsByCategory []CategoryCount `json:"complaintsByCategory"`
	ComplaintsByMonth    []MonthCount    `json:"complaintsByMonth"`
	AvgResolutionTime    float64         `json:"avgResolutionTime"`
}

// ResolutionStats are all-time resolution time statistics in days.
type ResolutionStats struct {
	AvgTime float64 `json:"avgTime" bson:"avgTime"`
	MinTime float64 `json:"minTime" bson:"minTime"`
	MaxTime float64 `json:"maxTime" bson:"maxTime"`
}

// TopDepartment is one row of the resolution-rate ranking.
type TopDepartment struct {
	ID                 interface{} `json:"_id" bson:"_id"`
	Name               string      `json:"name" bson:"name"`
	Email              string      `json:"email" bson:"email"`
	TotalComplaints    int64       `json:"totalComplaints" bson:"totalComplaints"`
	ResolvedComplaints int64       `json:"resolvedComplaints" bson:"resolvedComplaints"`
	ResolutionRate     float64     `json:"resolutionRate" bson:"resolutionRate"`
}

// MonthlyTrendPoint is one month of the trailing complaint trend, labeled
// "YYYY-MM".
type MonthlyTrendPoint struct {
	Month      string `json:"month"`
	Complaints int64  `json:"complaints"`
	Resolved   int64  `json:"resolved"`
	Pending    int64  `json:"pending"`
}

// SystemAnalytics is the admin analytics response.
type SystemAnalytics struct {
	UsersByRole          []RoleCount         `json:"usersByRole"`
	TotalDepartments     int64               `json:"totalDepartments"`
	TotalComplaints      int64               `json:"totalComplaints"`
	RecentResolved       int64               `json:"recentResolved"`
	ResolutionStats      ResolutionStats     `json:"resolutionStats"`
	TopDepartments       []TopDepartment     `json:"topDepartments"`
	MonthlyTrend         []MonthlyTrendPoint `json:"monthlyTrend"`
	CategoryDistribution []CategoryCount     `json:"categoryDistribution"`
	Timestamp            time.Time           `json:"timestamp"`
}

// DashboardTotals are the headline dashboard counters.
type DashboardTotals struct {
	Users           int64 `json:"users"`
	ComplaintsToday int64 `json:"complaintsToday"`
	Pending         int64 `json:"pending"`
	ResolvedToday   int64 `json:"resolvedToday"`
}

// DashboardGrowth compares the trailing 30 days against the prior period.
type DashboardGrowth struct {
	Users                int64 `json:"users"`
	UsersPercentage      int   `json:"usersPercentage"`
	Complaints           int64 `json:"complaints"`
	ComplaintsPercentage int   `json:"complaintsPercentage"`
}

// DashboardStats is the admin dashboard snapshot.
type DashboardStats struct {
	Totals         DashboardTotals      `json:"totals"`
	Growth         DashboardGrowth      `json:"growth"`
	RecentActivity []PopulatedComplaint `json:"recentActivity"`
}

// HealthCheckResponse is the health endpoint body.
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
