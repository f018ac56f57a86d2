package core

import "fmt"

// CallBudget bounds the number of model calls one debate run may make,
// guarding against runaway persona configurations. A budget of 0 means
// unlimited. One budget is created per run and used by a single goroutine,
// so no locking is needed.
type CallBudget struct {
	max  int
	used int
}

// NewCallBudget creates a budget allowing max calls, or unlimited when max
// is 0.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Spend consumes one call from the budget, failing once it is exhausted.
func (b *CallBudget) Spend() error {
	b.used++
	if b.max > 0 && b.used > b.max {
		return fmt.Errorf("model call budget of %d exhausted", b.max)
	}
	return nil
}

// Used returns the number of calls spent so far.
func (b *CallBudget) Used() int { return b.used }

// Remaining returns the calls left, or -1 when the budget is unlimited.
func (b *CallBudget) Remaining() int {
	if b.max == 0 {
		return -1
	}
	return b.max - b.used
}
