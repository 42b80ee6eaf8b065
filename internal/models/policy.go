package models

import (
	"time"

	"github.com/google/uuid"
)

// Policy is an insurance contract instance with a parametric trigger.
// Monetary amounts are smallest-unit integers (e.g. cents) to keep pool
// arithmetic exact. Coverage window timestamps are unix seconds and are only
// set once the premium is paid.
type Policy struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Policyholder   string       `json:"policyholder" db:"policyholder"`
	CoverageAmount int64        `json:"coverage_amount" db:"coverage_amount"`
	Premium        int64        `json:"premium" db:"premium"`
	DurationDays   int          `json:"duration_days" db:"duration_days"`
	StartTime      *int64       `json:"start_time,omitempty" db:"start_time"`
	EndTime        *int64       `json:"end_time,omitempty" db:"end_time"`
	EventType      EventType    `json:"event_type" db:"event_type"`
	TriggerRef     string       `json:"trigger_ref" db:"trigger_ref"`
	Status         PolicyStatus `json:"status" db:"status"`
	Claimed        bool         `json:"claimed" db:"claimed"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the policy is active and inside its coverage
// window at the given instant.
func (p *Policy) IsActive(now time.Time) bool {
	if p.Status != PolicyActive || p.StartTime == nil || p.EndTime == nil {
		return false
	}
	ts := now.Unix()
	return *p.StartTime <= ts && ts <= *p.EndTime
}

// WindowEnded reports whether the coverage window has passed.
func (p *Policy) WindowEnded(now time.Time) bool {
	return p.EndTime != nil && now.Unix() > *p.EndTime
}
