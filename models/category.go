package models

import "strings"

// Categories is the fixed complaint category enum, in display order.
var Categories = []string{
	"Road & Infrastructure",
	"Water Supply",
	"Electricity",
	"Sanitation & Waste",
	"Public Safety",
	"Healthcare",
	"Education",
	"Parks & Recreation",
	"Traffic & Transportation",
	"Others",
}

// highPriorityCategories are routed with High priority at creation.
var highPriorityCategories = map[string]bool{
	"Public Safety": true,
	"Electricity":   true,
	"Healthcare":    true,
}

// MatchCategory resolves raw input to the canonical category casing. The
// match is case-insensitive and ignores surrounding whitespace. An input
// with no canonical match yields a ValidationError listing the allowed
// values.
func MatchCategory(raw string) (string, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, cat := range Categories {
		if strings.ToLower(cat) == needle {
			return cat, nil
		}
	}
	return "", &ValidationError{
		Message: "invalid category, allowed values: " + strings.Join(Categories, ", "),
		Fields:  []string{"category"},
	}
}

// PriorityForCategory derives the creation priority from the canonical
// category.
func PriorityForCategory(category string) string {
	if highPriorityCategories[category] {
		return PriorityHigh
	}
	return PriorityMedium
}

// Complaint statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusRejected   = "Rejected"
)

// Complaint priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// PriorityRank orders priorities for sorting, highest first.
var PriorityRank = map[string]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// ValidStatus reports whether s is one of the four complaint statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// TerminalStatus reports whether a complaint in this status permits no
// further transitions.
func TerminalStatus(s string) bool {
	return s == StatusResolved || s == StatusRejected
}
