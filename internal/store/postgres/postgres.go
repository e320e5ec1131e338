package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/courierhq/delivery-fee-service/internal/domain"
	"github.com/courierhq/delivery-fee-service/internal/store"
)

const uniqueViolation = "23505"

// Store is the pgx-backed implementation of store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LatestWeatherByCity joins observations through the city's stations and picks
// the newest row. Ties on recorded_at break on id descending.
func (s *Store) LatestWeatherByCity(ctx context.Context, cityID uuid.UUID) (domain.WeatherObservation, error) {
	const q = `
		SELECT w.id, w.station_id, w.air_temperature::text, w.wind_speed::text, w.phenomenon, w.recorded_at
		FROM weather_observations w
		JOIN stations st ON st.id = w.station_id
		WHERE st.city_id = $1
		ORDER BY w.recorded_at DESC, w.id DESC
		LIMIT 1`

	var (
		obs        domain.WeatherObservation
		temp, wind *string
		phenomenon *string
	)
	err := s.pool.QueryRow(ctx, q, cityID).Scan(
		&obs.ID, &obs.StationID, &temp, &wind, &phenomenon, &obs.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WeatherObservation{}, store.ErrNotFound
	}
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("query latest weather: %w", err)
	}

	obs.AirTemperature = parseNullableDecimal(temp)
	obs.WindSpeed = parseNullableDecimal(wind)
	if phenomenon != nil {
		obs.Phenomenon = *phenomenon
	}
	obs.RecordedAt = obs.RecordedAt.UTC()
	return obs, nil
}

func (s *Store) AppendObservation(ctx context.Context, obs domain.WeatherObservation) error {
	const q = `
		INSERT INTO weather_observations (id, station_id, air_temperature, wind_speed, phenomenon, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q,
		obs.ID, obs.StationID,
		decimalText(obs.AirTemperature), decimalText(obs.WindSpeed),
		nullableString(obs.Phenomenon), obs.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (s *Store) StationByName(ctx context.Context, name string) (domain.Station, error) {
	const q = `SELECT id, city_id, name, wmo_code, active FROM stations WHERE name = $1`

	var st domain.Station
	err := s.pool.QueryRow(ctx, q, name).Scan(&st.ID, &st.CityID, &st.Name, &st.WmoCode, &st.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Station{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("query station by name: %w", err)
	}
	return st, nil
}

func (s *Store) BaseFeeFor(ctx context.Context, cityID, vehicleTypeID uuid.UUID) (domain.BaseFee, error) {
	const q = `
		SELECT id, city_id, vehicle_type_id, amount::text
		FROM base_fees WHERE city_id = $1 AND vehicle_type_id = $2`

	var (
		f      domain.BaseFee
		amount string
	)
	err := s.pool.QueryRow(ctx, q, cityID, vehicleTypeID).Scan(&f.ID, &f.CityID, &f.VehicleTypeID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BaseFee{}, store.ErrNotFound
	}
	if err != nil {
		return domain.BaseFee{}, fmt.Errorf("query base fee: %w", err)
	}

	f.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.BaseFee{}, fmt.Errorf("parse base fee amount: %w", err)
	}
	return f, nil
}

func (s *Store) SurchargeRulesForVehicle(ctx context.Context, vehicleTypeID uuid.UUID) ([]domain.SurchargeRule, error) {
	const q = `
		SELECT id, vehicle_type_id, condition_type, min_value::text, max_value::text, amount::text
		FROM surcharge_rules WHERE vehicle_type_id = $1
		ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, q, vehicleTypeID)
	if err != nil {
		return nil, fmt.Errorf("query surcharge rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func (s *Store) VehicleTypeByID(ctx context.Context, id uuid.UUID) (domain.VehicleType, error) {
	const q = `SELECT id, name, weather_restricted FROM vehicle_types WHERE id = $1`

	var vt domain.VehicleType
	err := s.pool.QueryRow(ctx, q, id).Scan(&vt.ID, &vt.Name, &vt.WeatherRestricted)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.VehicleType{}, store.ErrNotFound
	}
	if err != nil {
		return domain.VehicleType{}, fmt.Errorf("query vehicle type: %w", err)
	}
	return vt, nil
}

func (s *Store) ListCities(ctx context.Context) ([]domain.City, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func (s *Store) CreateCity(ctx context.Context, c domain.City) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO cities (id, name) VALUES ($1, $2)`, c.ID, c.Name)
	return writeErr("insert city", err)
}

func (s *Store) ListVehicleTypes(ctx context.Context) ([]domain.VehicleType, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, weather_restricted FROM vehicle_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query vehicle types: %w", err)
	}
	defer rows.Close()

	var types []domain.VehicleType
	for rows.Next() {
		var vt domain.VehicleType
		if err := rows.Scan(&vt.ID, &vt.Name, &vt.WeatherRestricted); err != nil {
			return nil, fmt.Errorf("scan vehicle type: %w", err)
		}
		types = append(types, vt)
	}
	return types, rows.Err()
}

func (s *Store) CreateVehicleType(ctx context.Context, vt domain.VehicleType) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vehicle_types (id, name, weather_restricted) VALUES ($1, $2, $3)`,
		vt.ID, vt.Name, vt.WeatherRestricted)
	return writeErr("insert vehicle type", err)
}

func (s *Store) ListStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, city_id, name, wmo_code, active FROM stations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.CityID, &st.Name, &st.WmoCode, &st.Active); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *Store) CreateStation(ctx context.Context, st domain.Station) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stations (id, city_id, name, wmo_code, active) VALUES ($1, $2, $3, $4, $5)`,
		st.ID, st.CityID, st.Name, st.WmoCode, st.Active)
	return writeErr("insert station", err)
}

func (s *Store) ListBaseFees(ctx context.Context) ([]domain.BaseFee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, city_id, vehicle_type_id, amount::text FROM base_fees ORDER BY city_id, vehicle_type_id`)
	if err != nil {
		return nil, fmt.Errorf("query base fees: %w", err)
	}
	defer rows.Close()

	var fees []domain.BaseFee
	for rows.Next() {
		var (
			f      domain.BaseFee
			amount string
		)
		if err := rows.Scan(&f.ID, &f.CityID, &f.VehicleTypeID, &amount); err != nil {
			return nil, fmt.Errorf("scan base fee: %w", err)
		}
		f.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse base fee amount: %w", err)
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

func (s *Store) CreateBaseFee(ctx context.Context, f domain.BaseFee) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO base_fees (id, city_id, vehicle_type_id, amount) VALUES ($1, $2, $3, $4)`,
		f.ID, f.CityID, f.VehicleTypeID, f.Amount.String())
	return writeErr("insert base fee", err)
}

func (s *Store) ListSurchargeRules(ctx context.Context) ([]domain.SurchargeRule, error) {
	const q = `
		SELECT id, vehicle_type_id, condition_type, min_value::text, max_value::text, amount::text
		FROM surcharge_rules ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query surcharge rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func (s *Store) CreateSurchargeRule(ctx context.Context, r domain.SurchargeRule) error {
	var minVal, maxVal *string
	if r.Condition.Bounds != nil {
		mn := r.Condition.Bounds.Min.String()
		mx := r.Condition.Bounds.Max.String()
		minVal, maxVal = &mn, &mx
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO surcharge_rules (id, vehicle_type_id, condition_type, min_value, max_value, amount)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.VehicleTypeID, r.Condition.Kind.String(), minVal, maxVal, r.Amount.String())
	return writeErr("insert surcharge rule", err)
}

func scanRules(rows pgx.Rows) ([]domain.SurchargeRule, error) {
	var rules []domain.SurchargeRule
	for rows.Next() {
		var (
			r             domain.SurchargeRule
			conditionType string
			minVal        *string
			maxVal        *string
			amount        string
		)
		if err := rows.Scan(&r.ID, &r.VehicleTypeID, &conditionType, &minVal, &maxVal, &amount); err != nil {
			return nil, fmt.Errorf("scan surcharge rule: %w", err)
		}

		r.Condition.Kind = domain.ParseConditionKind(conditionType)
		if minVal != nil && maxVal != nil {
			mn, err := decimal.NewFromString(*minVal)
			if err != nil {
				return nil, fmt.Errorf("parse rule min: %w", err)
			}
			mx, err := decimal.NewFromString(*maxVal)
			if err != nil {
				return nil, fmt.Errorf("parse rule max: %w", err)
			}
			r.Condition.Bounds = &domain.Bounds{Min: mn, Max: mx}
		}

		var err error
		r.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse rule amount: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func parseNullableDecimal(s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	return &d
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
