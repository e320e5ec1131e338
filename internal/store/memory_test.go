package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/delivery-fee-service/internal/domain"
)

func addStation(t *testing.T, st *MemoryStore, cityID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, st.CreateStation(context.Background(), domain.Station{
		ID: id, CityID: &cityID, Name: name, Active: true,
	}))
	return id
}

func addObservation(t *testing.T, st *MemoryStore, stationID uuid.UUID, at time.Time, phenomenon string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, st.AppendObservation(context.Background(), domain.WeatherObservation{
		ID: id, StationID: stationID, Phenomenon: phenomenon, RecordedAt: at,
	}))
	return id
}

func TestLatestWeatherByCity(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cityID := uuid.New()
	require.NoError(t, st.CreateCity(ctx, domain.City{ID: cityID, Name: "Tartu"}))
	stationID := addStation(t, st, cityID, "Tartu-Tõravere")

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	addObservation(t, st, stationID, base, "old")
	addObservation(t, st, stationID, base.Add(time.Hour), "newest")
	addObservation(t, st, stationID, base.Add(30*time.Minute), "middle")

	obs, err := st.LatestWeatherByCity(ctx, cityID)
	require.NoError(t, err)
	assert.Equal(t, "newest", obs.Phenomenon)
}

func TestLatestWeatherSpansCityStations(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cityID := uuid.New()
	require.NoError(t, st.CreateCity(ctx, domain.City{ID: cityID, Name: "Tallinn"}))
	first := addStation(t, st, cityID, "Tallinn-Harku")
	second := addStation(t, st, cityID, "Tallinn-Old-Town")

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	addObservation(t, st, first, base, "first station")
	addObservation(t, st, second, base.Add(time.Minute), "second station")

	obs, err := st.LatestWeatherByCity(ctx, cityID)
	require.NoError(t, err)
	assert.Equal(t, "second station", obs.Phenomenon)
}

func TestLatestWeatherTimestampTieKeepsLastAppended(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cityID := uuid.New()
	require.NoError(t, st.CreateCity(ctx, domain.City{ID: cityID, Name: "Pärnu"}))
	stationID := addStation(t, st, cityID, "Pärnu")

	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	addObservation(t, st, stationID, at, "appended first")
	addObservation(t, st, stationID, at, "appended second")

	obs, err := st.LatestWeatherByCity(ctx, cityID)
	require.NoError(t, err)
	assert.Equal(t, "appended second", obs.Phenomenon)
}

func TestLatestWeatherNotFound(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.LatestWeatherByCity(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStationByNameExactMatch(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cityID := uuid.New()
	require.NoError(t, st.CreateCity(ctx, domain.City{ID: cityID, Name: "Tallinn"}))
	stationID := addStation(t, st, cityID, "Tallinn-Harku")

	found, err := st.StationByName(ctx, "Tallinn-Harku")
	require.NoError(t, err)
	assert.Equal(t, stationID, found.ID)

	// Matching is case-sensitive.
	_, err = st.StationByName(ctx, "tallinn-harku")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBaseFeeRejectsDuplicatePair(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cityID := uuid.New()
	vehicleTypeID := uuid.New()

	fee := domain.BaseFee{
		ID:            uuid.New(),
		CityID:        cityID,
		VehicleTypeID: vehicleTypeID,
		Amount:        decimal.RequireFromString("4"),
	}
	require.NoError(t, st.CreateBaseFee(ctx, fee))

	dup := fee
	dup.ID = uuid.New()
	assert.ErrorIs(t, st.CreateBaseFee(ctx, dup), ErrConflict)
}

func TestSurchargeRulesFilteredByVehicle(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	bikeID := uuid.New()
	carID := uuid.New()

	require.NoError(t, st.CreateSurchargeRule(ctx, domain.SurchargeRule{
		ID: uuid.New(), VehicleTypeID: bikeID,
		Condition: domain.RuleCondition{Kind: domain.KindSnow},
		Amount:    decimal.RequireFromString("1"),
	}))
	require.NoError(t, st.CreateSurchargeRule(ctx, domain.SurchargeRule{
		ID: uuid.New(), VehicleTypeID: carID,
		Condition: domain.RuleCondition{Kind: domain.KindRain},
		Amount:    decimal.RequireFromString("0.5"),
	}))

	rules, err := st.SurchargeRulesForVehicle(ctx, bikeID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, domain.KindSnow, rules[0].Condition.Kind)
}

func TestSeedLoadsReferenceData(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, Seed(ctx, st))

	cities, err := st.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 3)

	types, err := st.ListVehicleTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 3)
	for _, vt := range types {
		if vt.Name == "Car" {
			assert.False(t, vt.WeatherRestricted)
		} else {
			assert.True(t, vt.WeatherRestricted, "%s should be restricted", vt.Name)
		}
	}

	fees, err := st.ListBaseFees(ctx)
	require.NoError(t, err)
	assert.Len(t, fees, 9)

	rules, err := st.ListSurchargeRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 11)

	station, err := st.StationByName(ctx, "Tartu-Tõravere")
	require.NoError(t, err)
	require.NotNil(t, station.CityID)
}
