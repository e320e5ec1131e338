package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// City is immutable reference data.
type City struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// VehicleType carries an explicit WeatherRestricted flag deciding whether the
// type can be hard-blocked under severe weather. New types default the flag
// from the legacy name match, see DefaultWeatherRestricted.
type VehicleType struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	WeatherRestricted bool      `json:"weatherRestricted"`
}

// DefaultWeatherRestricted is the migration default for the restriction flag:
// historically only bikes and scooters were blocked, matched by name.
func DefaultWeatherRestricted(name string) bool {
	switch strings.ToLower(name) {
	case "bike", "scooter":
		return true
	}
	return false
}

// Station is a weather station, optionally mapped to a city.
type Station struct {
	ID      uuid.UUID  `json:"id"`
	CityID  *uuid.UUID `json:"cityId,omitempty"`
	Name    string     `json:"name"`
	WmoCode *int       `json:"wmoCode,omitempty"`
	Active  bool       `json:"active"`
}

// WeatherObservation is one reading for a station. Observations are append-only;
// a newer reading supersedes older ones but never replaces them.
// RecordedAt is always UTC and is the ingestion time, not the feed's own time.
type WeatherObservation struct {
	ID             uuid.UUID        `json:"id"`
	StationID      uuid.UUID        `json:"stationId"`
	AirTemperature *decimal.Decimal `json:"airTemperature,omitempty"`
	WindSpeed      *decimal.Decimal `json:"windSpeed,omitempty"`
	Phenomenon     string           `json:"phenomenon,omitempty"`
	RecordedAt     time.Time        `json:"recordedAt"`
}

// BaseFee is the fixed delivery charge for a (city, vehicle type) pair.
// At most one exists per pair.
type BaseFee struct {
	ID            uuid.UUID       `json:"id"`
	CityID        uuid.UUID       `json:"cityId"`
	VehicleTypeID uuid.UUID       `json:"vehicleTypeId"`
	Amount        decimal.Decimal `json:"amount"`
}

// SurchargeRule adds Amount to the delivery fee when its condition matches
// the latest weather observation for the requested city.
type SurchargeRule struct {
	ID            uuid.UUID       `json:"id"`
	VehicleTypeID uuid.UUID       `json:"vehicleTypeId"`
	Condition     RuleCondition   `json:"condition"`
	Amount        decimal.Decimal `json:"amount"`
}

// FeeAmountValid reports whether a monetary amount is inside the allowed
// configuration range.
func FeeAmountValid(d decimal.Decimal) bool {
	min := decimal.New(1, -2)      // 0.01
	max := decimal.New(99999, -2)  // 999.99
	return d.GreaterThanOrEqual(min) && d.LessThanOrEqual(max)
}
