package user

import (
	"errors"
	"time"
)

const (
	CollectionUsers        = "users"
	CollectionCaseManagers = "caseManagers"
)

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleCaseManager Role = "case_manager"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CaseManager is kept apart from users; the two lists are not linked.
type CaseManager struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
