package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Complaint holds the structure for the complaints collection in mongo.
type Complaint struct {
	ID                primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Title             string               `json:"title" bson:"title"`
	Description       string               `json:"description" bson:"description"`
	Category          string               `json:"category" bson:"category"`
	Location          Location             `json:"location" bson:"location"`
	Citizen           primitive.ObjectID   `json:"citizen" bson:"citizen"`
	Department        primitive.ObjectID   `json:"department,omitempty" bson:"department,omitempty"`
	AssignedTo        primitive.ObjectID   `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Status            string               `json:"status" bson:"status"`
	Priority          string               `json:"priority" bson:"priority"`
	Images            []ComplaintImage     `json:"images" bson:"images"`
	Comments          []Comment            `json:"comments" bson:"comments"`
	ResolutionDetails *ResolutionDetails   `json:"resolutionDetails,omitempty" bson:"resolutionDetails,omitempty"`
	Upvotes           []primitive.ObjectID `json:"upvotes" bson:"upvotes"`
	Downvotes         []primitive.ObjectID `json:"downvotes" bson:"downvotes"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Location is the complaint site. Coordinates are optional.
type Location struct {
	Address     string       `json:"address" bson:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

// Coordinates is a lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// ComplaintImage is one stored attachment.
type ComplaintImage struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"publicId" bson:"publicId"`
}

// Comment is one complaint comment, appended in insertion order. IsOfficial
// marks comments authored by non-citizen roles.
type Comment struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	Text       string             `json:"text" bson:"text"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	IsOfficial bool               `json:"isOfficial" bson:"isOfficial"`
}

// ResolutionDetails is recorded exactly once, when the complaint transitions
// to Resolved, and retained thereafter.
type ResolutionDetails struct {
	ResolvedBy      primitive.ObjectID `json:"resolvedBy" bson:"resolvedBy"`
	ResolutionNotes string             `json:"resolutionNotes" bson:"resolutionNotes"`
	ResolvedAt      time.Time          `json:"resolvedAt" bson:"resolvedAt"`
	BeforeImage     string             `json:"beforeImage,omitempty" bson:"beforeImage,omitempty"`
	AfterImage      string             `json:"afterImage,omitempty" bson:"afterImage,omitempty"`
}

// Vote types accepted by the vote endpoint.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// ApplyVote applies toggle vote semantics for one user: voting the same type
// again removes the vote, voting the opposite type swaps it. The user id is
// never left in both sets.
func (c *Complaint) ApplyVote(userID primitive.ObjectID, voteType string) error {
	if voteType != VoteUp && voteType != VoteDown {
		return &ValidationError{Message: "invalid vote type", Fields: []string{"voteType"}}
	}

	hasUp := containsID(c.Upvotes, userID)
	hasDown := containsID(c.Downvotes, userID)

	if voteType == VoteUp {
		if hasUp {
			c.Upvotes = removeID(c.Upvotes, userID)
			return nil
		}
		c.Upvotes = append(c.Upvotes, userID)
		if hasDown {
			c.Downvotes = removeID(c.Downvotes, userID)
		}
		return nil
	}

	if hasDown {
		c.Downvotes = removeID(c.Downvotes, userID)
		return nil
	}
	c.Downvotes = append(c.Downvotes, userID)
	if hasUp {
		c.Upvotes = removeID(c.Upvotes, userID)
	}
	return nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// VoteCounts is the vote endpoint response.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// PopulatedComplaint is a complaint with its references expanded for
// responses. Comments shadows the embedded slice so each comment carries
// its author summary.
type PopulatedComplaint struct {
	Complaint        `bson:",inline"`
	Comments         []PopulatedComment `json:"comments" bson:"comments"`
	CitizenDetail    *UserSummary       `json:"citizenDetail,omitempty" bson:"citizenDetail,omitempty"`
	DepartmentDetail *DepartmentSummary `json:"departmentDetail,omitempty" bson:"departmentDetail,omitempty"`
	AssignedToDetail *UserSummary       `json:"assignedToDetail,omitempty" bson:"assignedToDetail,omitempty"`
}

// PopulatedComment is a created comment with its author expanded.
type PopulatedComment struct {
	Comment `bson:",inline"`
	Author  *UserSummary `json:"author,omitempty" bson:"author,omitempty"`
}
