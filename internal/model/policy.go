package model

import "time"

// BreakType describes whether a configured break is paid.
type BreakType string

const (
	BreakNone   BreakType = "none"
	BreakPaid   BreakType = "paid"
	BreakUnpaid BreakType = "unpaid"
)

// OvertimeRateType is the multiplier a payroll engine applies to overtime.
type OvertimeRateType string

const (
	OvertimeNone        OvertimeRateType = "none"
	OvertimeTimeAndHalf OvertimeRateType = "time_and_half"
	OvertimeDoubleTime  OvertimeRateType = "double_time"
)

// CompanyPolicy holds a company's break, lunch and overtime configuration.
// It is stored and served as-is; nothing in this service evaluates it.
type CompanyPolicy struct {
	CompanyID         string           `gorm:"primaryKey;size:64" json:"company_id"`
	BreakType         BreakType        `gorm:"size:16;not null" json:"break_type"`
	BreakMinutes      int              `gorm:"not null" json:"break_minutes"`
	BreakTriggerHours float64          `gorm:"not null" json:"break_trigger_hours"`
	LunchType         BreakType        `gorm:"size:16;not null" json:"lunch_type"`
	LunchMinutes      int              `gorm:"not null" json:"lunch_minutes"`
	LunchTriggerHours float64          `gorm:"not null" json:"lunch_trigger_hours"`
	OvertimeRateType  OvertimeRateType `gorm:"size:16;not null" json:"overtime_rate_type"`
	OvertimeDaily     bool             `gorm:"not null" json:"overtime_daily"`
	OvertimeWeekly    bool             `gorm:"not null" json:"overtime_weekly"`
	OvertimeWeekend   bool             `gorm:"not null" json:"overtime_weekend"`
	UpdatedBy         string           `gorm:"size:64" json:"updated_by,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// TableName pins the table name used by migrations.
func (CompanyPolicy) TableName() string { return "company_policies" }

// DefaultPolicy is returned for companies that never saved a policy.
func DefaultPolicy(companyID string) CompanyPolicy {
	return CompanyPolicy{
		CompanyID:        companyID,
		BreakType:        BreakNone,
		LunchType:        BreakNone,
		OvertimeRateType: OvertimeNone,
	}
}
