package parse

import (
	"fmt"
	"regexp"
	"strings"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

var idRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,63}$`)

// ID validates an opaque identifier supplied by a caller.
func ID(field, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", apperr.Validation(fmt.Sprintf("%s is required", field))
	}
	if !idRe.MatchString(raw) {
		return "", apperr.Validation(fmt.Sprintf("%s %q is not a valid identifier", field, raw))
	}
	return raw, nil
}

// OptionalID is ID for fields that may be omitted.
func OptionalID(field string, raw *string) (*string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := ID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ShiftStatus parses a status value. Values are matched exactly;
// "Pending" is rejected rather than folded to "pending".
func ShiftStatus(raw string) (model.ShiftStatus, error) {
	switch s := model.ShiftStatus(raw); s {
	case model.StatusActive, model.StatusPending, model.StatusDisputed, model.StatusVerified:
		return s, nil
	}
	return "", unknown("status", raw)
}

// ReviewStatus accepts only the statuses a reviewer queue can list.
func ReviewStatus(raw string) (model.ShiftStatus, error) {
	s, err := ShiftStatus(raw)
	if err != nil {
		return "", err
	}
	if s == model.StatusActive {
		return "", apperr.Validation("status active is not reviewable")
	}
	return s, nil
}

// Role parses a single role claim.
func Role(raw string) (model.Role, error) {
	switch r := model.Role(raw); r {
	case model.RoleAdmin, model.RoleManager, model.RoleWorker:
		return r, nil
	}
	return "", unknown("role", raw)
}

// Roles parses every role claim, failing on the first unknown value.
func Roles(raw []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(raw))
	for _, r := range raw {
		role, err := Role(r)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// BreakType parses a break or lunch type.
func BreakType(field, raw string) (model.BreakType, error) {
	switch b := model.BreakType(raw); b {
	case model.BreakNone, model.BreakPaid, model.BreakUnpaid:
		return b, nil
	}
	return "", unknown(field, raw)
}

// OvertimeRateType parses an overtime multiplier type.
func OvertimeRateType(raw string) (model.OvertimeRateType, error) {
	switch o := model.OvertimeRateType(raw); o {
	case model.OvertimeNone, model.OvertimeTimeAndHalf, model.OvertimeDoubleTime:
		return o, nil
	}
	return "", unknown("overtime_rate_type", raw)
}

func unknown(field, raw string) error {
	return apperr.Validation(fmt.Sprintf("unknown %s %q", field, raw))
}
