package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanChangeInflow(t *testing.T) {
	plan, err := PlanChange(10, 4, false)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: 4, NewQuantity: 14}, plan)

	// Strict mode never restricts inflows.
	plan, err = PlanChange(0, 25, true)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: 25, NewQuantity: 25}, plan)
}

func TestPlanChangeOutflowCovered(t *testing.T) {
	plan, err := PlanChange(10, -4, true)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: -4, NewQuantity: 6}, plan)

	// Taking exactly everything is not a clip.
	plan, err = PlanChange(10, -10, true)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: -10, NewQuantity: 0}, plan)
	assert.False(t, plan.Clipped)
}

func TestPlanChangeLenientClipsToZero(t *testing.T) {
	plan, err := PlanChange(4, -10, false)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: -4, NewQuantity: 0, Clipped: true}, plan)
}

func TestPlanChangeLenientFromEmpty(t *testing.T) {
	// Selling from an empty record still yields a plan: a zero deduction
	// that leaves the quantity at zero, recorded as clipped.
	plan, err := PlanChange(0, -5, false)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: 0, NewQuantity: 0, Clipped: true}, plan)
}

func TestPlanChangeStrictInsufficient(t *testing.T) {
	_, err := PlanChange(4, -10, true)
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = PlanChange(0, -0.001, true)
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPlanChangeNegativeAvailableClamped(t *testing.T) {
	// A record that somehow drifted below zero is treated as empty rather
	// than letting the ledger dig the hole deeper.
	plan, err := PlanChange(-3, -2, false)
	require.NoError(t, err)
	assert.Equal(t, ChangePlan{Applied: 0, NewQuantity: 0, Clipped: true}, plan)
}
