package model

import "time"

// Status is the account approval state. New accounts start as pending and
// only become usable for login once an admin approves them.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// statusTransitions is the closed set of allowed status changes. Reverse
// transitions (un-rejecting, un-approving) are not modeled.
var statusTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {},
}

// CanTransitionTo reports whether moving from s to next is an allowed
// status change.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Role determines what a user may do once logged in. Role is independent
// of Status.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User mirrors the 'users' table.
type User struct {
	ID           uint64     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"-"`
	Status       Status     `json:"status"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *uint64    `json:"approved_by,omitempty"`
}

// DisplayName returns the user's public name shown on posts.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Identity is the authenticated-and-store-verified user context attached to
// a request by the identity middleware. A nil *Identity means anonymous.
type Identity struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
