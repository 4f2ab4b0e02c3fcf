package model

// Actor is the authenticated caller of an operation.
type Actor struct {
	WorkerID  string `json:"worker_id"`
	CompanyID string `json:"company_id"`
	Roles     []Role `json:"roles"`
}

// Has reports whether the actor holds role r.
func (a Actor) Has(r Role) bool {
	for _, role := range a.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// CanReview reports whether any of the actor's roles may review timesheets.
func (a Actor) CanReview() bool {
	for _, role := range a.Roles {
		if role.CanReview() {
			return true
		}
	}
	return false
}
