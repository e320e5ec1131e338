package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<observations timestamp="1710072000">
  <station>
    <name>Tallinn-Harku</name>
    <airtemperature>-2.1</airtemperature>
    <windspeed>4.7</windspeed>
    <phenomenon>Light snow shower</phenomenon>
  </station>
  <station>
    <name>Pärnu</name>
    <airtemperature>0.4</airtemperature>
    <windspeed></windspeed>
    <phenomenon></phenomenon>
  </station>
</observations>`

func TestFetchParsesStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client := NewFeedClient(srv.Client(), srv.URL)
	entries, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Tallinn-Harku", entries[0].StationName)
	assert.Equal(t, "-2.1", entries[0].AirTemperature)
	assert.Equal(t, "4.7", entries[0].WindSpeed)
	assert.Equal(t, "Light snow shower", entries[0].Phenomenon)

	assert.Equal(t, "Pärnu", entries[1].StationName)
	assert.Equal(t, "", entries[1].WindSpeed)
}

func TestFetchMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not xml at all"))
	}))
	defer srv.Close()

	client := NewFeedClient(srv.Client(), srv.URL)
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchRespectsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewFeedClient(srv.Client(), srv.URL)
	_, err := client.Fetch(ctx)
	assert.Error(t, err)
}
