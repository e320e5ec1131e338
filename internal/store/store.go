package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/courierhq/delivery-fee-service/internal/domain"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write would violate a uniqueness rule,
	// such as a second base fee for the same (city, vehicle type) pair.
	ErrConflict = errors.New("entity already exists")
)

// WeatherReader is what the fee engine needs from the observation store.
type WeatherReader interface {
	// LatestWeatherByCity returns the newest observation among the city's
	// stations. Returns ErrNotFound when the city has no observations.
	LatestWeatherByCity(ctx context.Context, cityID uuid.UUID) (domain.WeatherObservation, error)
}

// WeatherWriter is what the ingestion pipeline needs from the observation store.
type WeatherWriter interface {
	AppendObservation(ctx context.Context, obs domain.WeatherObservation) error
}

// StationReader resolves stations for the ingestion pipeline.
type StationReader interface {
	// StationByName matches the station name exactly (case-sensitive).
	StationByName(ctx context.Context, name string) (domain.Station, error)
}

// FeeReader is what the fee engine needs from the rule store.
type FeeReader interface {
	BaseFeeFor(ctx context.Context, cityID, vehicleTypeID uuid.UUID) (domain.BaseFee, error)
	SurchargeRulesForVehicle(ctx context.Context, vehicleTypeID uuid.UUID) ([]domain.SurchargeRule, error)
}

// VehicleTypeReader resolves vehicle types for the restriction check.
type VehicleTypeReader interface {
	VehicleTypeByID(ctx context.Context, id uuid.UUID) (domain.VehicleType, error)
}

// Store is the full contract backing the service: the narrow read/write
// interfaces above plus the administrative surface.
type Store interface {
	WeatherReader
	WeatherWriter
	StationReader
	FeeReader
	VehicleTypeReader

	ListCities(ctx context.Context) ([]domain.City, error)
	CreateCity(ctx context.Context, c domain.City) error

	ListVehicleTypes(ctx context.Context) ([]domain.VehicleType, error)
	CreateVehicleType(ctx context.Context, vt domain.VehicleType) error

	ListStations(ctx context.Context) ([]domain.Station, error)
	CreateStation(ctx context.Context, st domain.Station) error

	ListBaseFees(ctx context.Context) ([]domain.BaseFee, error)
	CreateBaseFee(ctx context.Context, f domain.BaseFee) error

	ListSurchargeRules(ctx context.Context) ([]domain.SurchargeRule, error)
	CreateSurchargeRule(ctx context.Context, r domain.SurchargeRule) error
}
