package models

import "strings"

// Category is a topic a free-text query can be routed to.
type Category string

const (
	CategoryLatency      Category = "latency"
	CategoryPacketLoss   Category = "packet_loss"
	CategoryJitter       Category = "jitter"
	CategoryErrors       Category = "errors"
	CategorySecurity     Category = "security"
	CategoryOptimization Category = "optimization"
	CategoryGreeting     Category = "greeting"
	CategoryIdentity     Category = "identity"
	CategoryUnknown      Category = "unknown"
)

// Categories lists the closed category set.
var Categories = []Category{
	CategoryLatency,
	CategoryPacketLoss,
	CategoryJitter,
	CategoryErrors,
	CategorySecurity,
	CategoryOptimization,
	CategoryGreeting,
	CategoryIdentity,
	CategoryUnknown,
}

// ParseCategory maps a label onto the closed set; anything else is unknown.
func ParseCategory(label string) Category {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, c := range Categories {
		if string(c) == label {
			return c
		}
	}
	return CategoryUnknown
}

// ClassifiedAnswer is the canned response to a free-text query. Confidence is
// the fixed per-category value from the knowledge base; Posterior is the
// classifier's probability for the chosen category.
type ClassifiedAnswer struct {
	Response   string   `json:"response"`
	Confidence float64  `json:"confidence"`
	Category   Category `json:"category"`
	Posterior  float64  `json:"posterior"`
}
