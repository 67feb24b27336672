package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role classifies what a user account can do in the marketplace.
type Role string

const (
	RoleUser   Role = "user"   // Regular consumer
	RoleVendor Role = "vendor" // Reseller, higher daily request quota
	RoleFarmer Role = "farmer" // Owns products, receives contact requests
)

// IsValidRole reports whether r is one of the known account roles.
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleVendor, RoleFarmer:
		return true
	}
	return false
}

// User represents a user in the system.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"` // Store hash, not plaintext
	Role         Role               `bson:"role" json:"role"`
	IsAdmin      bool               `bson:"is_admin" json:"is_admin"`
	Suspended    bool               `bson:"suspended" json:"suspended"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	Deleted      bool               `bson:"deleted" json:"-"` // Soft delete flag
}
