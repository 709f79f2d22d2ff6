package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the users collection in mongo. The bcrypt
// password hash is never serialized into responses.
type User struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Phone      string             `json:"phone" bson:"phone"`
	Address    string             `json:"address" bson:"address"`
	Password   string             `json:"-" bson:"password"`
	Role       Role               `json:"role" bson:"role"`
	Department primitive.ObjectID `json:"department,omitempty" bson:"department,omitempty"`
	IsActive   bool               `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// UserSummary is the populated slice of a user embedded in complaint and
// department responses.
type UserSummary struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email" bson:"email"`
	Phone string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role  Role               `json:"role,omitempty" bson:"role,omitempty"`
}

// Summary projects the populated fields of a user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

// UserWithDepartment is a user listing row with the department reference
// populated.
type UserWithDepartment struct {
	User       `bson:",inline"`
	Department *DepartmentSummary `json:"department,omitempty" bson:"departmentDetail,omitempty"`
}
