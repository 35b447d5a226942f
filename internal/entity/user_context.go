package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserContext is the read-only profile every agent stage consumes: goals,
// constraints, and a value-dimension weighting used by A3's WeightedTotal.
// The core pipeline never writes this; it only records the version it ran
// against on the thought (Thought.ContextVersion).
type UserContext struct {
	UserId    uuid.UUID
	Version   int
	Profile   UserContextProfile
	UpdatedAt time.Time
}

type UserContextProfile struct {
	Demographics    map[string]string  `json:"demographics,omitempty"`
	Goals           []string           `json:"goals,omitempty"`
	Constraints     []string           `json:"constraints,omitempty"`
	ValueWeights    ValueWeights       `json:"value_weights,omitempty"`
	RecentPatterns  RecentPatterns     `json:"recent_patterns,omitempty"`
}

// ValueWeights mirrors the five A3 value dimensions; WeightedTotal divides by
// the sum of these weights rather than assuming they sum to 1.
type ValueWeights struct {
	Economic   float64 `json:"economic"`
	Relational float64 `json:"relational"`
	Legacy     float64 `json:"legacy"`
	Health     float64 `json:"health"`
	Growth     float64 `json:"growth"`
}

func (w ValueWeights) Sum() float64 {
	return w.Economic + w.Relational + w.Legacy + w.Health + w.Growth
}

type RecentPatterns struct {
	EnergyPeaks []string `json:"energy_peaks,omitempty"`
}
