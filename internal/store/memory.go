package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/courierhq/delivery-fee-service/internal/domain"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store.
// It backs tests and the no-database dev mode.
type MemoryStore struct {
	mu sync.RWMutex

	cities       map[uuid.UUID]domain.City
	vehicleTypes map[uuid.UUID]domain.VehicleType
	stations     map[uuid.UUID]domain.Station
	baseFees     map[uuid.UUID]domain.BaseFee
	rules        map[uuid.UUID]domain.SurchargeRule

	// key: station id, value: append-ordered observations
	observations map[uuid.UUID][]domain.WeatherObservation

	// insertion order for stable listings
	cityOrder        []uuid.UUID
	vehicleTypeOrder []uuid.UUID
	stationOrder     []uuid.UUID
	baseFeeOrder     []uuid.UUID
	ruleOrder        []uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cities:       make(map[uuid.UUID]domain.City),
		vehicleTypes: make(map[uuid.UUID]domain.VehicleType),
		stations:     make(map[uuid.UUID]domain.Station),
		baseFees:     make(map[uuid.UUID]domain.BaseFee),
		rules:        make(map[uuid.UUID]domain.SurchargeRule),
		observations: make(map[uuid.UUID][]domain.WeatherObservation),
	}
}

// LatestWeatherByCity returns the newest observation across the city's
// stations. Ties on timestamp resolve to the last appended observation.
func (s *MemoryStore) LatestWeatherByCity(_ context.Context, cityID uuid.UUID) (domain.WeatherObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest domain.WeatherObservation
	found := false
	for _, stationID := range s.stationOrder {
		st := s.stations[stationID]
		if st.CityID == nil || *st.CityID != cityID {
			continue
		}
		for _, obs := range s.observations[st.ID] {
			if !found || !obs.RecordedAt.Before(latest.RecordedAt) {
				latest = obs
				found = true
			}
		}
	}

	if !found {
		return domain.WeatherObservation{}, ErrNotFound
	}
	return latest, nil
}

// AppendObservation stores a new observation for its station.
func (s *MemoryStore) AppendObservation(_ context.Context, obs domain.WeatherObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observations[obs.StationID] = append(s.observations[obs.StationID], obs)
	return nil
}

// StationByName matches the station name exactly.
func (s *MemoryStore) StationByName(_ context.Context, name string) (domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.stations {
		if st.Name == name {
			return st, nil
		}
	}
	return domain.Station{}, ErrNotFound
}

func (s *MemoryStore) BaseFeeFor(_ context.Context, cityID, vehicleTypeID uuid.UUID) (domain.BaseFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.baseFees {
		if f.CityID == cityID && f.VehicleTypeID == vehicleTypeID {
			return f, nil
		}
	}
	return domain.BaseFee{}, ErrNotFound
}

func (s *MemoryStore) SurchargeRulesForVehicle(_ context.Context, vehicleTypeID uuid.UUID) ([]domain.SurchargeRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rules []domain.SurchargeRule
	for _, id := range s.ruleOrder {
		r := s.rules[id]
		if r.VehicleTypeID == vehicleTypeID {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

func (s *MemoryStore) VehicleTypeByID(_ context.Context, id uuid.UUID) (domain.VehicleType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vt, ok := s.vehicleTypes[id]
	if !ok {
		return domain.VehicleType{}, ErrNotFound
	}
	return vt, nil
}

func (s *MemoryStore) ListCities(_ context.Context) ([]domain.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cities := make([]domain.City, 0, len(s.cityOrder))
	for _, id := range s.cityOrder {
		cities = append(cities, s.cities[id])
	}
	return cities, nil
}

func (s *MemoryStore) CreateCity(_ context.Context, c domain.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cities[c.ID]; ok {
		return ErrConflict
	}
	s.cities[c.ID] = c
	s.cityOrder = append(s.cityOrder, c.ID)
	return nil
}

func (s *MemoryStore) ListVehicleTypes(_ context.Context) ([]domain.VehicleType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]domain.VehicleType, 0, len(s.vehicleTypeOrder))
	for _, id := range s.vehicleTypeOrder {
		types = append(types, s.vehicleTypes[id])
	}
	return types, nil
}

func (s *MemoryStore) CreateVehicleType(_ context.Context, vt domain.VehicleType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicleTypes[vt.ID]; ok {
		return ErrConflict
	}
	s.vehicleTypes[vt.ID] = vt
	s.vehicleTypeOrder = append(s.vehicleTypeOrder, vt.ID)
	return nil
}

func (s *MemoryStore) ListStations(_ context.Context) ([]domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stations := make([]domain.Station, 0, len(s.stationOrder))
	for _, id := range s.stationOrder {
		stations = append(stations, s.stations[id])
	}
	return stations, nil
}

func (s *MemoryStore) CreateStation(_ context.Context, st domain.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stations[st.ID]; ok {
		return ErrConflict
	}
	s.stations[st.ID] = st
	s.stationOrder = append(s.stationOrder, st.ID)
	return nil
}

func (s *MemoryStore) ListBaseFees(_ context.Context) ([]domain.BaseFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fees := make([]domain.BaseFee, 0, len(s.baseFeeOrder))
	for _, id := range s.baseFeeOrder {
		fees = append(fees, s.baseFees[id])
	}
	return fees, nil
}

// CreateBaseFee enforces at most one fee per (city, vehicle type) pair.
func (s *MemoryStore) CreateBaseFee(_ context.Context, f domain.BaseFee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.baseFees {
		if existing.CityID == f.CityID && existing.VehicleTypeID == f.VehicleTypeID {
			return ErrConflict
		}
	}
	s.baseFees[f.ID] = f
	s.baseFeeOrder = append(s.baseFeeOrder, f.ID)
	return nil
}

func (s *MemoryStore) ListSurchargeRules(_ context.Context) ([]domain.SurchargeRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]domain.SurchargeRule, 0, len(s.ruleOrder))
	for _, id := range s.ruleOrder {
		rules = append(rules, s.rules[id])
	}
	return rules, nil
}

func (s *MemoryStore) CreateSurchargeRule(_ context.Context, r domain.SurchargeRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[r.ID]; ok {
		return ErrConflict
	}
	s.rules[r.ID] = r
	s.ruleOrder = append(s.ruleOrder, r.ID)
	return nil
}
