package model

// Role is a caller's role inside a company.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
)

// CanReview reports whether the role may approve or dispute timesheets.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleManager
}
