// Package weather fetches current ride conditions from the Open-Meteo
// forecast API for the configured home coordinates. Results flow into the
// weather cache slot; the client itself holds no state.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const baseURL = "https://api.open-meteo.com/v1/forecast"

// Timeout bounds a single forecast fetch.
const Timeout = 10 * time.Second

// Forecast is the subset of the forecast relevant to ride planning.
type Forecast struct {
	TemperatureC     float64
	ApparentTempC    float64
	WindSpeedKmh     float64
	WindDirectionDeg float64
	PrecipProbPct    float64
	FetchedFor       struct {
		Lat float64
		Lon float64
	}
}

// Client fetches forecasts. Open-Meteo requires no authentication.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a forecast client.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: Timeout}}
}

type currentResponse struct {
	Current struct {
		Temperature2m            float64 `json:"temperature_2m"`
		ApparentTemperature      float64 `json:"apparent_temperature"`
		WindSpeed10m             float64 `json:"wind_speed_10m"`
		WindDirection10m         float64 `json:"wind_direction_10m"`
		PrecipitationProbability float64 `json:"precipitation_probability"`
	} `json:"current"`
}

// Get fetches the current conditions at the given coordinates.
func (c *Client) Get(ctx context.Context, lat, lon float64) (*Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("current", "temperature_2m,apparent_temperature,wind_speed_10m,wind_direction_10m,precipitation_probability")

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("forecast API error %d: %s", resp.StatusCode, string(body))
	}

	var parsed currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}

	f := &Forecast{
		TemperatureC:     parsed.Current.Temperature2m,
		ApparentTempC:    parsed.Current.ApparentTemperature,
		WindSpeedKmh:     parsed.Current.WindSpeed10m,
		WindDirectionDeg: parsed.Current.WindDirection10m,
		PrecipProbPct:    parsed.Current.PrecipitationProbability,
	}
	f.FetchedFor.Lat = lat
	f.FetchedFor.Lon = lon
	return f, nil
}
