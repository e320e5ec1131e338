package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhq/delivery-fee-service/internal/domain"
)

// Seed loads the default reference data set: the three tracked cities with
// their stations, the vehicle types, base fees and the standard surcharge
// rule set. Intended for the in-memory dev mode and for tests.
func Seed(ctx context.Context, s Store) error {
	type stationInfo struct {
		name    string
		wmoCode int
	}

	cityStations := []struct {
		city    string
		station stationInfo
	}{
		{"Tallinn", stationInfo{"Tallinn-Harku", 26038}},
		{"Tartu", stationInfo{"Tartu-Tõravere", 26242}},
		{"Pärnu", stationInfo{"Pärnu", 41803}},
	}

	baseFees := map[string]map[string]string{
		"Tallinn": {"Car": "4", "Scooter": "3.5", "Bike": "3"},
		"Tartu":   {"Car": "3.5", "Scooter": "3", "Bike": "2.5"},
		"Pärnu":   {"Car": "3", "Scooter": "2.5", "Bike": "2"},
	}

	cityIDs := make(map[string]uuid.UUID)
	for _, cs := range cityStations {
		city := domain.City{ID: uuid.New(), Name: cs.city}
		if err := s.CreateCity(ctx, city); err != nil {
			return fmt.Errorf("seed city %s: %w", cs.city, err)
		}
		cityIDs[cs.city] = city.ID

		cityID := city.ID
		wmo := cs.station.wmoCode
		station := domain.Station{
			ID:      uuid.New(),
			CityID:  &cityID,
			Name:    cs.station.name,
			WmoCode: &wmo,
			Active:  true,
		}
		if err := s.CreateStation(ctx, station); err != nil {
			return fmt.Errorf("seed station %s: %w", cs.station.name, err)
		}
	}

	typeIDs := make(map[string]uuid.UUID)
	for _, name := range []string{"Car", "Scooter", "Bike"} {
		vt := domain.VehicleType{
			ID:                uuid.New(),
			Name:              name,
			WeatherRestricted: domain.DefaultWeatherRestricted(name),
		}
		if err := s.CreateVehicleType(ctx, vt); err != nil {
			return fmt.Errorf("seed vehicle type %s: %w", name, err)
		}
		typeIDs[name] = vt.ID
	}

	for city, fees := range baseFees {
		for vehicle, amount := range fees {
			fee := domain.BaseFee{
				ID:            uuid.New(),
				CityID:        cityIDs[city],
				VehicleTypeID: typeIDs[vehicle],
				Amount:        decimal.RequireFromString(amount),
			}
			if err := s.CreateBaseFee(ctx, fee); err != nil {
				return fmt.Errorf("seed base fee %s/%s: %w", city, vehicle, err)
			}
		}
	}

	type ruleSpec struct {
		vehicle  string
		kind     domain.ConditionKind
		min, max string
		amount   string
	}

	rules := []ruleSpec{
		{"Scooter", domain.KindTemperature, "-100", "-10", "1"},
		{"Scooter", domain.KindTemperature, "-10", "0", "0.5"},
		{"Bike", domain.KindTemperature, "-100", "-10", "1"},
		{"Bike", domain.KindTemperature, "-10", "0", "0.5"},
		{"Bike", domain.KindWindSpeed, "10", "20", "0.5"},
		{"Scooter", domain.KindSnow, "", "", "1"},
		{"Scooter", domain.KindSleet, "", "", "1"},
		{"Scooter", domain.KindRain, "", "", "0.5"},
		{"Bike", domain.KindSnow, "", "", "1"},
		{"Bike", domain.KindSleet, "", "", "1"},
		{"Bike", domain.KindRain, "", "", "0.5"},
	}

	for _, spec := range rules {
		cond := domain.RuleCondition{Kind: spec.kind}
		if spec.min != "" {
			cond.Bounds = &domain.Bounds{
				Min: decimal.RequireFromString(spec.min),
				Max: decimal.RequireFromString(spec.max),
			}
		}
		rule := domain.SurchargeRule{
			ID:            uuid.New(),
			VehicleTypeID: typeIDs[spec.vehicle],
			Condition:     cond,
			Amount:        decimal.RequireFromString(spec.amount),
		}
		if err := s.CreateSurchargeRule(ctx, rule); err != nil {
			return fmt.Errorf("seed surcharge rule for %s: %w", spec.vehicle, err)
		}
	}

	return nil
}
