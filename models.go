package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleName is a role's unique name
type RoleName = string

const (
	// RoleAdmin can administer the platform
	RoleAdmin RoleName = "Admin"
	// RoleProfessor can author and run courses
	RoleProfessor RoleName = "Professor"
	// RoleStudent can enroll in courses
	RoleStudent RoleName = "Student"
)

// DefaultRoles is the fixed role set the provisioner guarantees at startup.
func DefaultRoles() []RoleName {
	return []RoleName{RoleAdmin, RoleProfessor, RoleStudent}
}

// User is the credential store's user model
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username           string     `bun:"username,notnull" json:"username,omitempty"`
	NormalizedUsername string     `bun:"normalized_username,notnull,unique" json:"-"`
	Email              string     `bun:"email" json:"email,omitempty"`
	FullName           string     `bun:"full_name" json:"full_name,omitempty"`
	Phone              string     `bun:"phone_number" json:"phone_number,omitempty"`
	Bio                string     `bun:"bio" json:"bio,omitempty"`
	MediaURL           string     `bun:"media_url" json:"media_url,omitempty"`
	SocialLinks        string     `bun:"social_links" json:"social_links,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	Version            int64      `bun:"version,notnull,default:0" json:"-"`
	Roles              []*Role    `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Normalize fills the unique case-insensitive username projection.
func (u *User) Normalize() *User {
	u.NormalizedUsername = NormalizeUsername(u.Username)
	return u
}

// DisplayName is the name claim value: full name, falling back to username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Role is the role model
type Role struct {
	bun.BaseModel  `bun:"table:roles,alias:rol"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           RoleName   `bun:"name,notnull,unique" json:"name,omitempty"`
	NormalizedName string     `bun:"normalized_name,notnull,unique" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Normalize fills the unique case-insensitive name projection.
func (r *Role) Normalize() *Role {
	r.NormalizedName = NormalizeUsername(r.Name)
	return r
}

// UserRole is the membership join record. GrantedAt preserves grant order so
// issued role claims keep insertion order.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:uro"`
	UserID        uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	RoleID        uuid.UUID  `bun:"role_id,pk,type:uuid" json:"role_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"-"`
	GrantedAt     *time.Time `bun:"granted_at,nullzero,default:current_timestamp" json:"granted_at,omitempty"`
}

// NormalizeUsername is the case-insensitive projection applied to usernames
// and role names before any store lookup.
func NormalizeUsername(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
