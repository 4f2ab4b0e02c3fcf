package store

import "timekeeping-backend/internal/model"

// statusCount is one row of the per-status aggregate.
type statusCount struct {
	Status model.ShiftStatus
	Total  int64
}
