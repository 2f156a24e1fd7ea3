package enums

import (
	"fmt"
	"strings"
)

// Sport groups leagues and teams in the catalog.
type Sport string

const (
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportAmerican   Sport = "american_football"
	SportBaseball   Sport = "baseball"
	SportHockey     Sport = "hockey"
	SportRugby      Sport = "rugby"
	SportCricket    Sport = "cricket"
)

var validSports = []Sport{
	SportFootball,
	SportBasketball,
	SportAmerican,
	SportBaseball,
	SportHockey,
	SportRugby,
	SportCricket,
}

// Sports returns every known sport.
func Sports() []Sport {
	return append([]Sport(nil), validSports...)
}

// String implements fmt.Stringer.
func (s Sport) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Sport.
func (s Sport) IsValid() bool {
	for _, candidate := range validSports {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSport converts raw input into a Sport; "soccer" is accepted for football.
func ParseSport(value string) (Sport, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "soccer" {
		return SportFootball, nil
	}
	for _, candidate := range validSports {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sport %q", value)
}
