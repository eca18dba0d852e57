package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
)

// Invitable reports whether an admin may invite a member with this role.
// The admin row itself only comes from bootstrap.
func (r Role) Invitable() bool {
	return r == RoleManager || r == RoleSales
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Member struct {
	ID           string
	Name         string
	Email        string // lower case, unique
	Role         Role
	PasswordHash string // argon2id PHC, empty until activation
	PasswordSet  bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m Member) Status() Status {
	if m.PasswordSet {
		return StatusActive
	}
	return StatusInactive
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	MemberID string
	Role     Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
