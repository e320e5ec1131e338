package ingest

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// FeedEntry is one station's reading as published by the feed. Numeric fields
// stay raw text here; the pipeline decides what parses and what is absent.
type FeedEntry struct {
	StationName    string
	AirTemperature string
	WindSpeed      string
	Phenomenon     string
}

type feedDocument struct {
	XMLName  xml.Name      `xml:"observations"`
	Stations []feedStation `xml:"station"`
}

type feedStation struct {
	Name           string `xml:"name"`
	AirTemperature string `xml:"airtemperature"`
	WindSpeed      string `xml:"windspeed"`
	Phenomenon     string `xml:"phenomenon"`
}

// BackoffConfig controls exponential backoff behaviour for feed fetches.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// FeedClient fetches and decodes the weather observations feed with retries
// and a circuit breaker.
type FeedClient struct {
	url     string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewFeedClient creates a FeedClient for the given endpoint.
func NewFeedClient(client *http.Client, url string) *FeedClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weather-feed",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &FeedClient{
		url:    url,
		client: client,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

// Fetch retrieves the feed and returns one entry per station element.
func (c *FeedClient) Fetch(ctx context.Context) ([]FeedEntry, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc feedDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode weather feed: %w", err)
	}

	entries := make([]FeedEntry, 0, len(doc.Stations))
	for _, st := range doc.Stations {
		entries = append(entries, FeedEntry{
			StationName:    st.Name,
			AirTemperature: st.AirTemperature,
			WindSpeed:      st.WindSpeed,
			Phenomenon:     st.Phenomenon,
		})
	}
	return entries, nil
}

// get executes the HTTP request with retries, exponential backoff, and the
// circuit breaker.
func (c *FeedClient) get(ctx context.Context) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			return result.(*http.Response), nil
		}

		// If the circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
