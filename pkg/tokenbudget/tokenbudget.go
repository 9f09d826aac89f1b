// Package tokenbudget implements the coordination core's resource control:
// an integer token budget partitioned across named agents (spec.md §4.3).
package tokenbudget

import (
	"fmt"
	"sync"

	"github.com/cuemby/moai-flow-core/pkg/errs"
)

// Budget allocates, consumes, refunds, and rebalances an integer budget
// across agents. All operations are atomic under a single mutex, the same
// map+sync.Mutex shape the teacher uses for its join-token table.
type Budget struct {
	mu          sync.Mutex
	total       int
	allocations map[string]int
	consumed    map[string]int
}

// New creates a Budget with the given total. A total of 0 means unlimited:
// allocate() never fails on capacity, only on negative amounts.
func New(total int) *Budget {
	return &Budget{
		total:       total,
		allocations: make(map[string]int),
		consumed:    make(map[string]int),
	}
}

// Allocate grants amount additional tokens to agentID. Fails with
// BudgetExceeded if the sum of all allocations would exceed the total
// (a total of 0 is treated as unlimited).
func (b *Budget) Allocate(agentID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("allocate amount must be non-negative: %w", errs.InvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.total > 0 {
		sum := amount
		for _, v := range b.allocations {
			sum += v
		}
		if sum > b.total {
			return fmt.Errorf("allocating %d to %s would exceed total budget %d: %w", amount, agentID, b.total, errs.BudgetExceeded)
		}
	}

	b.allocations[agentID] += amount
	return nil
}

// Consume charges amount tokens against agentID's allocation. Fails if
// consumed would exceed what was allocated.
func (b *Budget) Consume(agentID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("consume amount must be non-negative: %w", errs.InvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consumed[agentID]+amount > b.allocations[agentID] {
		return fmt.Errorf("agent %s would consume %d against allocation %d: %w", agentID, b.consumed[agentID]+amount, b.allocations[agentID], errs.BudgetExceeded)
	}
	b.consumed[agentID] += amount
	return nil
}

// Refund reduces agentID's consumed total by amount, flooring at 0.
func (b *Budget) Refund(agentID string, amount int) {
	if amount < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consumed[agentID] -= amount
	if b.consumed[agentID] < 0 {
		b.consumed[agentID] = 0
	}
}

// Rebalance atomically replaces the allocation table. Fails if any agent's
// new allocation would be below what it has already consumed.
func (b *Budget) Rebalance(newAllocations map[string]int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for agentID, amount := range newAllocations {
		if amount < 0 {
			return fmt.Errorf("rebalance amount for %s must be non-negative: %w", agentID, errs.InvalidArgument)
		}
		if amount < b.consumed[agentID] {
			return fmt.Errorf("rebalance would drop %s below consumed %d: %w", agentID, b.consumed[agentID], errs.BudgetExceeded)
		}
	}
	// An agent omitted from newAllocations gets an implicit allocation of 0;
	// if it has already consumed tokens, that omission is just as much a
	// violation of consumed <= allocation as an explicit lower value would be.
	for agentID, consumed := range b.consumed {
		if consumed == 0 {
			continue
		}
		if _, present := newAllocations[agentID]; !present {
			return fmt.Errorf("rebalance omits %s, which would drop it below consumed %d: %w", agentID, consumed, errs.BudgetExceeded)
		}
	}
	if b.total > 0 {
		var sum int
		for _, amount := range newAllocations {
			sum += amount
		}
		if sum > b.total {
			return fmt.Errorf("rebalanced allocations %d exceed total budget %d: %w", sum, b.total, errs.BudgetExceeded)
		}
	}

	replacement := make(map[string]int, len(newAllocations))
	for k, v := range newAllocations {
		replacement[k] = v
	}
	b.allocations = replacement
	return nil
}

// Remaining returns agentID's allocation minus what it has consumed.
func (b *Budget) Remaining(agentID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allocations[agentID] - b.consumed[agentID]
}

// Snapshot returns a point-in-time copy of total, allocations, and consumed
// for inspection (e.g. by the Swarm Coordinator's stats surface).
func (b *Budget) Snapshot() (total int, allocations, consumed map[string]int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	allocations = make(map[string]int, len(b.allocations))
	for k, v := range b.allocations {
		allocations[k] = v
	}
	consumed = make(map[string]int, len(b.consumed))
	for k, v := range b.consumed {
		consumed[k] = v
	}
	return b.total, allocations, consumed
}
