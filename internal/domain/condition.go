package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ConditionKind is the closed set of weather conditions a surcharge rule can
// depend on. Anything else parses to KindUnknown, which never matches.
type ConditionKind int

const (
	KindUnknown ConditionKind = iota
	KindTemperature
	KindWindSpeed
	KindRain
	KindSnow
	KindSleet
)

// ParseConditionKind maps a stored condition type string to its kind.
// Matching is case-insensitive.
func ParseConditionKind(s string) ConditionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature":
		return KindTemperature
	case "windspeed":
		return KindWindSpeed
	case "rain":
		return KindRain
	case "snow":
		return KindSnow
	case "sleet":
		return KindSleet
	}
	return KindUnknown
}

func (k ConditionKind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindWindSpeed:
		return "windspeed"
	case KindRain:
		return "rain"
	case KindSnow:
		return "snow"
	case KindSleet:
		return "sleet"
	}
	return "unknown"
}

// MarshalText serializes kinds by name in JSON.
func (k ConditionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name; unrecognized names become KindUnknown.
func (k *ConditionKind) UnmarshalText(b []byte) error {
	*k = ParseConditionKind(string(b))
	return nil
}

// Bounds is an inclusive numeric range used by temperature and windspeed rules.
type Bounds struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (b Bounds) contains(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(b.Min) && d.LessThanOrEqual(b.Max)
}

// RuleCondition is a condition kind plus its payload. Only temperature and
// windspeed carry bounds; a range kind with nil bounds never matches.
type RuleCondition struct {
	Kind   ConditionKind `json:"kind"`
	Bounds *Bounds       `json:"bounds,omitempty"`
}

// Matches evaluates the condition against an observation.
// Range kinds need a present reading and both bounds; phrase kinds do a
// case-insensitive substring match on the condition phrase.
func (c RuleCondition) Matches(obs WeatherObservation) bool {
	switch c.Kind {
	case KindTemperature:
		return c.Bounds != nil && obs.AirTemperature != nil && c.Bounds.contains(*obs.AirTemperature)
	case KindWindSpeed:
		return c.Bounds != nil && obs.WindSpeed != nil && c.Bounds.contains(*obs.WindSpeed)
	case KindRain:
		return phraseContains(obs.Phenomenon, "rain")
	case KindSnow:
		return phraseContains(obs.Phenomenon, "snow")
	case KindSleet:
		return phraseContains(obs.Phenomenon, "sleet")
	case KindUnknown:
		return false
	}
	return false
}

func phraseContains(phrase, word string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(phrase), word)
}
