package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/platform/auth"
)

// User is an identity record. Exactly one role is active at a time; the role
// is set to patient at registration and may be promoted once when a
// non-patient profile is created.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Email         string    `db:"email" json:"email"`
	IDNumber      string    `db:"id_number" json:"id_number"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          auth.Role `db:"role" json:"role"`
	ContactNumber *string   `db:"contact_number" json:"contact_number,omitempty"`
	ProfileImage  *string   `db:"profile_image" json:"profile_image,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type RegisterRequest struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	IDNumber      string  `json:"id_number"`
	Password      string  `json:"password"`
	ContactNumber *string `json:"contact_number,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login. The user embeds no
// password material.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// MeResponse pairs the authenticated user with their role profile. Profile is
// null until the profile record is created.
type MeResponse struct {
	User    *User       `json:"user"`
	Profile interface{} `json:"profile"`
}
