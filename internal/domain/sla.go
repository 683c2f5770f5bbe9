package domain

import (
	"fmt"
	"time"
)

// SLATable maps priorities to resolution windows measured from creation.
type SLATable map[IssuePriority]time.Duration

// DefaultSLATable returns the stock SLA windows.
func DefaultSLATable() SLATable {
	return SLATable{
		PriorityCritical: 4 * time.Hour,
		PriorityHigh:     24 * time.Hour,
		PriorityMedium:   72 * time.Hour,
		PriorityLow:      168 * time.Hour,
	}
}

// Deadline computes the SLA deadline for an issue created at the given time.
func (t SLATable) Deadline(createdAt time.Time, priority IssuePriority) time.Time {
	window, ok := t[priority]
	if !ok {
		window = DefaultSLATable()[PriorityMedium]
	}
	return createdAt.Add(window)
}

// Validate enforces the ordering Critical < High < Medium < Low. Any table
// that breaks it is rejected; a misordered table would make reprioritization
// extend deadlines for more urgent work.
func (t SLATable) Validate() error {
	ordered := []IssuePriority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	for _, p := range ordered {
		window, ok := t[p]
		if !ok {
			return fmt.Errorf("sla table missing priority %s", p)
		}
		if window <= 0 {
			return fmt.Errorf("sla window for %s must be positive", p)
		}
	}
	for i := 1; i < len(ordered); i++ {
		if t[ordered[i-1]] >= t[ordered[i]] {
			return fmt.Errorf("sla window for %s must be shorter than %s", ordered[i-1], ordered[i])
		}
	}
	return nil
}
