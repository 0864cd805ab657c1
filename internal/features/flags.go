// Package features holds the on/off switches that gate whole route groups.
package features

import "github.com/Clark-Hu/tour-ratings/internal/config"

// Known flag names.
const (
	TourRatings     = "tour-ratings"
	Recommendations = "recommendations"
)

// Flags is an immutable set of named feature switches.
type Flags struct {
	enabled map[string]bool
}

// New returns Flags with the given states. Names not present are disabled.
func New(states map[string]bool) Flags {
	enabled := make(map[string]bool, len(states))
	for name, on := range states {
		enabled[name] = on
	}
	return Flags{enabled: enabled}
}

// FromConfig builds the flag set from runtime configuration.
func FromConfig(cfg config.Config) Flags {
	return New(map[string]bool{
		TourRatings:     cfg.FeatureTourRatings,
		Recommendations: cfg.FeatureRecommendations,
	})
}

// IsEnabled reports whether the named feature is on.
func (f Flags) IsEnabled(name string) bool {
	return f.enabled[name]
}
