package fee

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/delivery-fee-service/internal/domain"
	"github.com/courierhq/delivery-fee-service/internal/store"
)

type fixture struct {
	store   *store.MemoryStore
	service *Service

	cityID    uuid.UUID
	stationID uuid.UUID
	carID     uuid.UUID
	scooterID uuid.UUID
	bikeID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	f := &fixture{
		store:     st,
		cityID:    uuid.New(),
		stationID: uuid.New(),
		carID:     uuid.New(),
		scooterID: uuid.New(),
		bikeID:    uuid.New(),
	}

	require.NoError(t, st.CreateCity(ctx, domain.City{ID: f.cityID, Name: "Tallinn"}))

	cityID := f.cityID
	require.NoError(t, st.CreateStation(ctx, domain.Station{
		ID: f.stationID, CityID: &cityID, Name: "Tallinn-Harku", Active: true,
	}))

	require.NoError(t, st.CreateVehicleType(ctx, domain.VehicleType{
		ID: f.carID, Name: "Car", WeatherRestricted: false,
	}))
	require.NoError(t, st.CreateVehicleType(ctx, domain.VehicleType{
		ID: f.scooterID, Name: "Scooter", WeatherRestricted: true,
	}))
	require.NoError(t, st.CreateVehicleType(ctx, domain.VehicleType{
		ID: f.bikeID, Name: "Bike", WeatherRestricted: true,
	}))

	f.service = NewService(st, st, st, slog.Default())
	return f
}

func (f *fixture) addBaseFee(t *testing.T, vehicleTypeID uuid.UUID, amount string) {
	t.Helper()
	require.NoError(t, f.store.CreateBaseFee(context.Background(), domain.BaseFee{
		ID:            uuid.New(),
		CityID:        f.cityID,
		VehicleTypeID: vehicleTypeID,
		Amount:        decimal.RequireFromString(amount),
	}))
}

func (f *fixture) addRule(t *testing.T, vehicleTypeID uuid.UUID, cond domain.RuleCondition, amount string) {
	t.Helper()
	require.NoError(t, f.store.CreateSurchargeRule(context.Background(), domain.SurchargeRule{
		ID:            uuid.New(),
		VehicleTypeID: vehicleTypeID,
		Condition:     cond,
		Amount:        decimal.RequireFromString(amount),
	}))
}

func (f *fixture) addWeather(t *testing.T, temp, wind, phenomenon string) {
	t.Helper()
	obs := domain.WeatherObservation{
		ID:         uuid.New(),
		StationID:  f.stationID,
		Phenomenon: phenomenon,
		RecordedAt: time.Now().UTC(),
	}
	if temp != "" {
		d := decimal.RequireFromString(temp)
		obs.AirTemperature = &d
	}
	if wind != "" {
		d := decimal.RequireFromString(wind)
		obs.WindSpeed = &d
	}
	require.NoError(t, f.store.AppendObservation(context.Background(), obs))
}

func boundsCond(kind domain.ConditionKind, min, max string) domain.RuleCondition {
	return domain.RuleCondition{
		Kind: kind,
		Bounds: &domain.Bounds{
			Min: decimal.RequireFromString(min),
			Max: decimal.RequireFromString(max),
		},
	}
}

func TestExtraFeeNoWeatherData(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, f.bikeID, boundsCond(domain.KindTemperature, "-10", "0"), "0.5")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Equal(t, MsgNoWeatherData, notice)
	assert.True(t, extra.IsZero())
}

func TestExtraFeeTemperatureRule(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, f.bikeID, boundsCond(domain.KindTemperature, "-10", "0"), "0.5")
	f.addWeather(t, "-5", "4", "Clear")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, extra.Equal(decimal.RequireFromString("0.5")), "got %s", extra)
}

func TestExtraFeeAccumulatesMatchingRules(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, f.bikeID, boundsCond(domain.KindTemperature, "-10", "0"), "0.5")
	f.addRule(t, f.bikeID, boundsCond(domain.KindWindSpeed, "10", "20"), "0.5")
	f.addRule(t, f.bikeID, domain.RuleCondition{Kind: domain.KindSnow}, "1")
	f.addWeather(t, "-5", "15", "Light snow shower")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, extra.Equal(decimal.RequireFromString("2")), "got %s", extra)
}

func TestSevereWeatherBlocksRestrictedVehicle(t *testing.T) {
	f := newFixture(t)
	// Matching surcharge rules exist but must not be evaluated.
	f.addRule(t, f.scooterID, domain.RuleCondition{Kind: domain.KindRain}, "0.5")
	f.addWeather(t, "10", "5", "Thunderstorm expected")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.scooterID)
	require.NoError(t, err)
	assert.Equal(t, MsgForbiddenWeather, notice)
	assert.True(t, extra.IsZero())
}

func TestSevereWeatherAllowsUnrestrictedVehicle(t *testing.T) {
	f := newFixture(t)
	f.addWeather(t, "10", "5", "Glaze on roads, hail expected")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.carID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, extra.IsZero())
}

func TestWindGateBoundary(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, f.bikeID, boundsCond(domain.KindWindSpeed, "10", "20"), "0.5")

	// Exactly 20: gate does not trigger, surcharge does (inclusive max).
	f.addWeather(t, "5", "20", "Clear")
	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, extra.Equal(decimal.RequireFromString("0.5")), "got %s", extra)

	// 20.01: gate triggers, surcharge discarded.
	f.addWeather(t, "5", "20.01", "Clear")
	extra, notice, err = f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Equal(t, MsgForbiddenWind, notice)
	assert.True(t, extra.IsZero())
}

func TestWindGateIgnoresUnrestrictedVehicle(t *testing.T) {
	f := newFixture(t)
	f.addRule(t, f.carID, boundsCond(domain.KindWindSpeed, "10", "20"), "0.5")
	f.addWeather(t, "5", "25", "Clear")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.carID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, extra.IsZero(), "25 is outside the surcharge bounds")
}

func TestWindGateRequiresWindSpeedRule(t *testing.T) {
	f := newFixture(t)
	// Only a temperature rule configured: extreme wind alone does not block.
	f.addRule(t, f.bikeID, boundsCond(domain.KindTemperature, "-10", "0"), "0.5")
	f.addWeather(t, "-5", "30", "Clear")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, extra.Equal(decimal.RequireFromString("0.5")))
}

func TestWindRuleUsedTwiceInOneLoop(t *testing.T) {
	f := newFixture(t)
	// Bounds cover the gate region, so the same rule matches for the
	// surcharge and triggers the gate; the gate wins.
	f.addRule(t, f.bikeID, boundsCond(domain.KindWindSpeed, "10", "30"), "0.5")
	f.addWeather(t, "5", "25", "Clear")

	extra, notice, err := f.service.CalculateExtraFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Equal(t, MsgForbiddenWind, notice)
	assert.True(t, extra.IsZero())
}

func TestIsVehicleRestricted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	restricted, err := f.service.IsVehicleRestricted(ctx, f.bikeID)
	require.NoError(t, err)
	assert.True(t, restricted)

	restricted, err = f.service.IsVehicleRestricted(ctx, f.carID)
	require.NoError(t, err)
	assert.False(t, restricted)

	// Unknown vehicle type is never restricted.
	restricted, err = f.service.IsVehicleRestricted(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, restricted)
}

func TestDeliveryFeeCarClearWeather(t *testing.T) {
	f := newFixture(t)
	f.addBaseFee(t, f.carID, "4.00")
	f.addWeather(t, "15", "5", "clear")

	quote, notice, err := f.service.CalculateDeliveryFee(context.Background(), f.cityID, f.carID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, quote.BaseFee.Equal(decimal.RequireFromString("4")))
	assert.True(t, quote.ExtraFee.IsZero())
	assert.True(t, quote.TotalFee.Equal(decimal.RequireFromString("4")))
}

func TestDeliveryFeeAddsSurcharge(t *testing.T) {
	f := newFixture(t)
	f.addBaseFee(t, f.bikeID, "3.00")
	f.addRule(t, f.bikeID, boundsCond(domain.KindTemperature, "-10", "0"), "0.5")
	f.addWeather(t, "-5", "4", "Clear")

	quote, notice, err := f.service.CalculateDeliveryFee(context.Background(), f.cityID, f.bikeID)
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.True(t, quote.TotalFee.Equal(decimal.RequireFromString("3.5")), "got %s", quote.TotalFee)
}

func TestDeliveryFeeNoBaseFee(t *testing.T) {
	f := newFixture(t)
	f.addWeather(t, "15", "5", "clear")

	_, _, err := f.service.CalculateDeliveryFee(context.Background(), f.cityID, f.carID)
	assert.ErrorIs(t, err, ErrNoBaseFee)
}

func TestDeliveryFeeSurfacesRestriction(t *testing.T) {
	f := newFixture(t)
	f.addBaseFee(t, f.scooterID, "3.50")
	f.addWeather(t, "10", "5", "Thunder")

	quote, notice, err := f.service.CalculateDeliveryFee(context.Background(), f.cityID, f.scooterID)
	require.NoError(t, err)
	assert.Equal(t, MsgForbiddenWeather, notice)
	assert.True(t, quote.TotalFee.IsZero(), "no total on a blocked quote")
}
