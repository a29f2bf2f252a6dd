package domain

import "time"

type Strategy string

const (
	StrategyRoundRobin Strategy = "round-robin"
	StrategyLeastUsed  Strategy = "least-used"
	StrategyPriority   Strategy = "priority"
	StrategyRandom     Strategy = "random"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyRoundRobin, StrategyLeastUsed, StrategyPriority, StrategyRandom:
		return true
	default:
		return false
	}
}

// Normalize maps an unknown strategy to round-robin so that a hand-edited
// config file can never break rotation.
func (s Strategy) Normalize() Strategy {
	if !s.Valid() {
		return StrategyRoundRobin
	}
	return s
}

// RotationPolicy is process-wide rotation configuration, persisted as part
// of the config aggregate.
type RotationPolicy struct {
	Enabled       bool
	Strategy      Strategy
	CrossProvider bool
	LastRotation  *time.Time
	// MaxUsesPerKey is persisted for forward compatibility but not acted on.
	MaxUsesPerKey int
}
