package backtest

import (
	"errors"
	"testing"

	"github.com/openquant/hindsight/internal/core"
)

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid", Policy{SuccessThreshold: 0.20, FailureThreshold: -0.10, HorizonDays: 60}, false},
		{"zero success", Policy{SuccessThreshold: 0, FailureThreshold: -0.10, HorizonDays: 60}, true},
		{"negative success", Policy{SuccessThreshold: -0.05, FailureThreshold: -0.10, HorizonDays: 60}, true},
		{"zero failure", Policy{SuccessThreshold: 0.20, FailureThreshold: 0, HorizonDays: 60}, true},
		{"positive failure", Policy{SuccessThreshold: 0.20, FailureThreshold: 0.10, HorizonDays: 60}, true},
		{"zero horizon", Policy{SuccessThreshold: 0.20, FailureThreshold: -0.10, HorizonDays: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidPolicy) {
					t.Errorf("err = %v, want INVALID_POLICY", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
