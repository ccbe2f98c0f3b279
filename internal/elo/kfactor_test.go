package elo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdPolicy_KFactor(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name       string
		gamesSoFar int
		expected   float64
	}{
		{"first match", 0, 32},
		{"30th match", 29, 32},
		{"31st match crosses the threshold", 30, 16},
		{"veteran", 250, 16},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, policy.KFactor(test.gamesSoFar))
		})
	}
}

func TestThresholdPolicy_Custom(t *testing.T) {
	policy := ThresholdPolicy{Threshold: 5, Provisional: 40, Established: 20}
	assert.Equal(t, 40.0, policy.KFactor(4))
	assert.Equal(t, 20.0, policy.KFactor(5))
}

func TestKFactorFunc(t *testing.T) {
	var policy KFactorPolicy = KFactorFunc(func(int) float64 { return 24 })
	assert.Equal(t, 24.0, policy.KFactor(0))
	assert.Equal(t, 24.0, policy.KFactor(100))
}
