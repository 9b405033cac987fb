package models

import "time"

// Roles a user can hold.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User represents a user account in the system.
type User struct {
	ID             string    `json:"id" bson:"_id"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password_hash,omitempty"` // Never expose this to the client
	GoogleID       string    `json:"-" bson:"google_id,omitempty"`
	Role           string    `json:"role" bson:"role"`
	Phone          string    `json:"phone,omitempty" bson:"phone,omitempty"`
	City           string    `json:"city,omitempty" bson:"city,omitempty"`
	Province       string    `json:"province,omitempty" bson:"province,omitempty"`
	MemberNumber   string    `json:"memberNumber,omitempty" bson:"member_number,omitempty"`
	FoundingMember bool      `json:"foundingMember" bson:"founding_member"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
