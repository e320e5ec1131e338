package fee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhq/delivery-fee-service/internal/common"
	"github.com/courierhq/delivery-fee-service/internal/domain"
	"github.com/courierhq/delivery-fee-service/internal/store"
)

// Reported conditions surfaced to callers. These are business outcomes,
// not failures; they map to normal HTTP responses.
const (
	MsgNoWeatherData    = "No weather data available for this city"
	MsgForbiddenWeather = "Usage of selected vehicle type is forbidden due to extreme weather conditions"
	MsgForbiddenWind    = "Usage of selected vehicle type is forbidden due to extreme wind conditions"
)

// ErrNoBaseFee means no base fee is configured for the requested
// (city, vehicle type) pair. A caller-visible condition, not a crash.
var ErrNoBaseFee = errors.New("no base fee configured for city and vehicle type")

// windGate is the wind speed above which restricted vehicle types are
// blocked outright. Strictly greater than: 20.00 does not trigger.
var windGate = decimal.NewFromInt(20)

// severePhenomena hard-block restricted vehicle types regardless of any
// configured surcharge rules.
var severePhenomena = []string{"glaze", "hail", "thunder"}

// Quote is a successful fee computation.
type Quote struct {
	BaseFee  decimal.Decimal `json:"baseFee"`
	ExtraFee decimal.Decimal `json:"extraFee"`
	TotalFee decimal.Decimal `json:"totalFee"`
}

// Service evaluates weather surcharges and composes delivery fee quotes.
// All state is read fresh from the stores on every call.
type Service struct {
	weather  store.WeatherReader
	fees     store.FeeReader
	vehicles store.VehicleTypeReader
	log      *slog.Logger
}

// NewService creates a Service.
func NewService(weather store.WeatherReader, fees store.FeeReader, vehicles store.VehicleTypeReader, log *slog.Logger) *Service {
	return &Service{
		weather:  weather,
		fees:     fees,
		vehicles: vehicles,
		log:      log,
	}
}

// CalculateExtraFee computes the weather surcharge for a (city, vehicle type)
// pair against the city's latest observation. The returned string is a
// reported condition (empty when the fee stands); err is reserved for store
// failures.
//
// A windspeed rule is deliberately used twice in the loop below: it can both
// add its surcharge when the speed is inside its bounds and trigger the hard
// wind gate when the speed exceeds the limit.
func (s *Service) CalculateExtraFee(ctx context.Context, cityID, vehicleTypeID uuid.UUID) (decimal.Decimal, string, error) {
	obs, err := s.weather.LatestWeatherByCity(ctx, cityID)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, MsgNoWeatherData, nil
	}
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("latest weather for city %s: %w", cityID, err)
	}

	phrase := strings.ToLower(obs.Phenomenon)
	if phrase != "" && common.HasAny(phrase, severePhenomena...) {
		restricted, err := s.IsVehicleRestricted(ctx, vehicleTypeID)
		if err != nil {
			return decimal.Zero, "", err
		}
		if restricted {
			return decimal.Zero, MsgForbiddenWeather, nil
		}
	}

	rules, err := s.fees.SurchargeRulesForVehicle(ctx, vehicleTypeID)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("surcharge rules for vehicle type %s: %w", vehicleTypeID, err)
	}

	extra := decimal.Zero
	for _, rule := range rules {
		if rule.Condition.Matches(obs) {
			extra = extra.Add(rule.Amount)
		}

		if rule.Condition.Kind == domain.KindWindSpeed && obs.WindSpeed != nil && obs.WindSpeed.GreaterThan(windGate) {
			restricted, err := s.IsVehicleRestricted(ctx, vehicleTypeID)
			if err != nil {
				return decimal.Zero, "", err
			}
			if restricted {
				return decimal.Zero, MsgForbiddenWind, nil
			}
		}
	}

	return extra, "", nil
}

// IsVehicleRestricted reports whether the vehicle type may be hard-blocked
// under severe weather. An unknown vehicle type is never restricted.
func (s *Service) IsVehicleRestricted(ctx context.Context, vehicleTypeID uuid.UUID) (bool, error) {
	vt, err := s.vehicles.VehicleTypeByID(ctx, vehicleTypeID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vehicle type %s: %w", vehicleTypeID, err)
	}
	return vt.WeatherRestricted, nil
}

// CalculateDeliveryFee composes the base fee with the weather surcharge.
// Returns ErrNoBaseFee when no fee is configured for the pair; a non-empty
// notice means the computation was blocked by a reported condition and the
// quote is not meaningful.
func (s *Service) CalculateDeliveryFee(ctx context.Context, cityID, vehicleTypeID uuid.UUID) (Quote, string, error) {
	base, err := s.fees.BaseFeeFor(ctx, cityID, vehicleTypeID)
	if errors.Is(err, store.ErrNotFound) {
		return Quote{}, "", ErrNoBaseFee
	}
	if err != nil {
		return Quote{}, "", fmt.Errorf("base fee for city %s vehicle type %s: %w", cityID, vehicleTypeID, err)
	}

	extra, notice, err := s.CalculateExtraFee(ctx, cityID, vehicleTypeID)
	if err != nil {
		return Quote{}, "", err
	}
	if notice != "" {
		s.log.Info("delivery fee blocked",
			"city", cityID, "vehicleType", vehicleTypeID, "reason", notice)
		return Quote{}, notice, nil
	}

	return Quote{
		BaseFee:  base.Amount,
		ExtraFee: extra,
		TotalFee: base.Amount.Add(extra),
	}, "", nil
}
