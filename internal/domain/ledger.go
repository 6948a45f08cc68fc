package domain

import "errors"

// ErrInsufficientStock is returned when a strict outflow asks for more than
// the stock record has available. In lenient mode the outflow is clipped
// instead and no error is raised.
var ErrInsufficientStock = errors.New("insufficient stock")

// ChangePlan is the outcome of planning one signed quantity change against
// a stock record. Applied is the change that actually goes into the ledger;
// it equals the requested change unless a lenient outflow was clipped.
type ChangePlan struct {
	Applied     float64
	NewQuantity float64
	Clipped     bool
}

// PlanChange decides how a signed change applies to a stock record holding
// `available` units. Inflows always apply in full. An outflow larger than
// the available quantity either fails (strict) or is clipped so the record
// lands exactly on zero (lenient). The decision is pure; callers persist
// the resulting quantity and ledger entry atomically.
func PlanChange(available, change float64, strict bool) (ChangePlan, error) {
	if available < 0 {
		available = 0
	}

	if change >= 0 {
		return ChangePlan{Applied: change, NewQuantity: available + change}, nil
	}

	outflow := -change
	if outflow <= available {
		return ChangePlan{Applied: change, NewQuantity: available - outflow}, nil
	}

	if strict {
		return ChangePlan{}, ErrInsufficientStock
	}
	return ChangePlan{Applied: -available, NewQuantity: 0, Clipped: true}, nil
}
