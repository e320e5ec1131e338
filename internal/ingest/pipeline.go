package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhq/delivery-fee-service/internal/domain"
	"github.com/courierhq/delivery-fee-service/internal/store"
)

// Feed abstracts the weather observations source.
type Feed interface {
	Fetch(ctx context.Context) ([]FeedEntry, error)
}

// Pipeline turns feed entries for the target stations into stored
// observations. One Run is one logical unit of work; the scheduler guarantees
// runs never overlap.
type Pipeline struct {
	feed     Feed
	stations store.StationReader
	weather  store.WeatherWriter
	targets  map[string]struct{}
	log      *slog.Logger

	// now is injectable for tests; observations are stamped with it in UTC.
	now func() time.Time
}

// NewPipeline creates a Pipeline tracking the given station names.
func NewPipeline(feed Feed, stations store.StationReader, weather store.WeatherWriter, targetStations []string, log *slog.Logger) *Pipeline {
	targets := make(map[string]struct{}, len(targetStations))
	for _, name := range targetStations {
		targets[name] = struct{}{}
	}

	return &Pipeline{
		feed:     feed,
		stations: stations,
		weather:  weather,
		targets:  targets,
		log:      log,
		now:      time.Now,
	}
}

// Run fetches the feed once and appends one observation per resolvable target
// station. Feed entries for unknown stations are skipped with a warning; a
// store write failure ends the run.
func (p *Pipeline) Run(ctx context.Context) error {
	entries, err := p.feed.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch weather feed: %w", err)
	}

	// The feed's own timestamp is not trusted; every observation in the run
	// gets the ingestion time.
	observedAt := p.now().UTC()

	batch := make([]domain.WeatherObservation, 0, len(p.targets))
	for _, entry := range entries {
		if _, ok := p.targets[entry.StationName]; !ok {
			continue
		}

		st, err := p.stations.StationByName(ctx, entry.StationName)
		if errors.Is(err, store.ErrNotFound) {
			p.log.Warn("no matching station for feed entry", "station", entry.StationName)
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve station %q: %w", entry.StationName, err)
		}

		batch = append(batch, domain.WeatherObservation{
			ID:             uuid.New(),
			StationID:      st.ID,
			AirTemperature: parseDecimal(entry.AirTemperature),
			WindSpeed:      parseDecimal(entry.WindSpeed),
			Phenomenon:     entry.Phenomenon,
			RecordedAt:     observedAt,
		})
	}

	if len(batch) == 0 {
		p.log.Warn("no matching weather data found for target stations")
		return nil
	}

	for _, obs := range batch {
		if err := p.weather.AppendObservation(ctx, obs); err != nil {
			return fmt.Errorf("append observation for station %s: %w", obs.StationID, err)
		}
	}

	p.log.Info("weather observations saved", "count", len(batch))
	return nil
}

// parseDecimal parses a locale-invariant decimal; anything unparseable is
// treated as an absent reading, not an error.
func parseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
