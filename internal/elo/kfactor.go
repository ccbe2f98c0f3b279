package elo

// KFactorPolicy maps how many matches a player has played before the current
// one to the K-factor applied to that match.
type KFactorPolicy interface {
	KFactor(gamesPlayedBefore int) float64
}

// Default K-factor settings.
const (
	DefaultThreshold   = 30
	DefaultProvisional = 32
	DefaultEstablished = 16
)

// ThresholdPolicy gives players a Provisional K until they have played
// Threshold matches, and an Established K from then on.
type ThresholdPolicy struct {
	Threshold   int
	Provisional float64
	Established float64
}

var _ KFactorPolicy = ThresholdPolicy{}

// DefaultPolicy returns K = 32 for the first 30 matches and K = 16 afterwards.
func DefaultPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		Threshold:   DefaultThreshold,
		Provisional: DefaultProvisional,
		Established: DefaultEstablished,
	}
}

func (p ThresholdPolicy) KFactor(gamesPlayedBefore int) float64 {
	if gamesPlayedBefore >= p.Threshold {
		return p.Established
	}
	return p.Provisional
}

// KFactorFunc adapts a plain function to KFactorPolicy.
type KFactorFunc func(gamesPlayedBefore int) float64

func (f KFactorFunc) KFactor(gamesPlayedBefore int) float64 {
	return f(gamesPlayedBefore)
}
