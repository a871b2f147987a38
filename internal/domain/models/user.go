// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleStudent     = "student"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// User statuses. Disabled users cannot sign in.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User represents students, coordinators, and admins.
//
// NOTE:
//   - Email is stored folded (lowercase) and is unique across all users.
//   - PasswordHash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // student | coordinator | admin
	Status       string             `bson:"status" json:"status"`

	// Profile fields shown on pair cards.
	Headline  string `bson:"headline,omitempty" json:"headline,omitempty"`
	Batch     string `bson:"batch,omitempty" json:"batch,omitempty"`
	TimeZone  string `bson:"time_zone,omitempty" json:"time_zone,omitempty"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}
