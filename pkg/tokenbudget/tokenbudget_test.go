package tokenbudget

import (
	"errors"
	"testing"

	"github.com/cuemby/moai-flow-core/pkg/errs"
	"github.com/stretchr/testify/require"
)

func TestAllocateOverflow(t *testing.T) {
	b := New(100)
	require.NoError(t, b.Allocate("a", 60))
	err := b.Allocate("b", 50)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.BudgetExceeded))

	total, allocations, _ := b.Snapshot()
	require.Equal(t, 100, total)
	require.Equal(t, 60, allocations["a"])
	_, ok := allocations["b"]
	require.False(t, ok)
}

func TestConsumeWithinAllocation(t *testing.T) {
	b := New(100)
	require.NoError(t, b.Allocate("a", 50))
	require.NoError(t, b.Consume("a", 30))
	require.Equal(t, 20, b.Remaining("a"))

	err := b.Consume("a", 30)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.BudgetExceeded))
}

func TestRefundFloorsAtZero(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Allocate("a", 10))
	require.NoError(t, b.Consume("a", 4))
	b.Refund("a", 100)
	require.Equal(t, 10, b.Remaining("a"))
}

func TestRebalanceRejectsBelowConsumed(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Allocate("a", 10))
	require.NoError(t, b.Consume("a", 8))

	err := b.Rebalance(map[string]int{"a": 5})
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.BudgetExceeded))
}

func TestRebalanceRejectsOmittingAConsumingAgent(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Allocate("a", 10))
	require.NoError(t, b.Allocate("b", 10))
	require.NoError(t, b.Consume("a", 8))

	err := b.Rebalance(map[string]int{"b": 5})
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.BudgetExceeded))

	_, allocations, _ := b.Snapshot()
	require.Equal(t, 10, allocations["a"], "a failed rebalance must leave allocations untouched")
}

func TestRebalanceReplacesAtomically(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Allocate("a", 10))
	require.NoError(t, b.Rebalance(map[string]int{"a": 20, "b": 5}))

	_, allocations, _ := b.Snapshot()
	require.Equal(t, 20, allocations["a"])
	require.Equal(t, 5, allocations["b"])
}
