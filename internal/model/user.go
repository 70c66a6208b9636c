package model

import "time"

// Role is the closed set of authorization roles a user may hold.  The
// zero value is not a valid role; use ParseRole to convert untrusted
// input into a Role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
)

// ParseRole returns the Role matching s, or false when s is not one of
// the known role names.  Matching is exact; callers normalize case
// before parsing.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleUser, RoleVendor:
		return Role(s), true
	}
	return "", false
}

// User mirrors the `users` table.  PasswordHash and RefreshFingerprint
// never leave the repository/handler boundary; responses are built from
// PublicUser instead.
//
// Fields:
//  ID                 - UUID primary key, assigned at creation.
//  FullName           - display name.
//  Email              - unique, stored lowercase.
//  PasswordHash       - bcrypt digest of the current password.
//  AvatarURL          - public URL of the avatar asset.
//  Role               - authorization role (admin/staff/user/vendor).
//  IsActive           - session-presence flag, true while logged in.
//  RefreshFingerprint - SHA-256 of the single valid refresh token, empty when no session.
//  LastLogin          - most recent successful login (nullable).
//  CreatedAt/UpdatedAt - lifecycle timestamps.
type User struct {
	ID                 string
	FullName           string
	Email              string
	PasswordHash       string
	AvatarURL          string
	Role               Role
	IsActive           bool
	RefreshFingerprint string
	LastLogin          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicUser is the client-facing view of a User.  It deliberately
// omits the password hash and refresh fingerprint.
type PublicUser struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	AvatarURL string     `json:"avatar"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Public converts a stored user into its client-facing view.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
