package backtest

import (
	"fmt"

	"github.com/openquant/hindsight/internal/core"
)

// Policy controls how a signal's forward price path is judged. Thresholds
// are fractional moves relative to the trigger price.
type Policy struct {
	SuccessThreshold float64 `json:"success_threshold"`
	FailureThreshold float64 `json:"failure_threshold"`
	HorizonDays      int     `json:"horizon_days"`
}

// Validate checks the policy invariants: failure < 0 < success and a
// positive horizon.
func (p Policy) Validate() error {
	if p.SuccessThreshold <= 0 {
		return core.WrapError(core.ErrInvalidPolicy,
			fmt.Errorf("success_threshold must be positive, got %g", p.SuccessThreshold))
	}
	if p.FailureThreshold >= 0 {
		return core.WrapError(core.ErrInvalidPolicy,
			fmt.Errorf("failure_threshold must be negative, got %g", p.FailureThreshold))
	}
	if p.HorizonDays <= 0 {
		return core.WrapError(core.ErrInvalidPolicy,
			fmt.Errorf("horizon_days must be positive, got %d", p.HorizonDays))
	}
	return nil
}
