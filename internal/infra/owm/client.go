package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voicebox/internal/infra"
)

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamFailure  = errors.New("upstream failure")
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// CurrentReport is the weather summary handed to the model, shaped for
// direct JSON serialization into a tool result.
type CurrentReport struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	Location    string  `json:"location"`
	Unit        string  `json:"unit"`
}

type ForecastEntry struct {
	Time        int64   `json:"time"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
}

type HourlyReport struct {
	Hourly []ForecastEntry `json:"hourly_forecast"`
	Unit   string          `json:"unit"`
}

type DailyReport struct {
	Daily []ForecastEntry `json:"daily_forecast"`
	Unit  string          `json:"unit"`
}

// Client talks to the OpenWeatherMap API: geocoding, current weather,
// hourly forecast (One Call 3.0) and 5-day forecast.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *Cache
}

func NewClient(apiKey string, timeout, cacheTTL time.Duration) *Client {
	return NewClientWithURL(apiKey, "https://api.openweathermap.org", timeout, cacheTTL)
}

func NewClientWithURL(apiKey, baseURL string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      NewCache(cacheTTL),
	}
}

// Geocode resolves a freeform city name ("London", "New York, US") to
// coordinates using the geocoding endpoint.
func (c *Client) Geocode(ctx context.Context, city string) (Coordinates, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var results []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := c.get(ctx, "/geo/1.0/direct", params, &results); err != nil {
		return Coordinates{}, fmt.Errorf("geocoding %q: %w", city, err)
	}

	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("geocoding %q: %w", city, ErrLocationNotFound)
	}

	return Coordinates{Lat: results[0].Lat, Lon: results[0].Lon}, nil
}

type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}

// Current returns current conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, coords Coordinates, unit string) (*CurrentReport, error) {
	key := cacheKey("current", coords, unit)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*CurrentReport), nil
	}

	params := c.coordParams(coords, unit)

	var resp currentResponse
	if err := c.get(ctx, "/data/2.5/weather", params, &resp); err != nil {
		return nil, fmt.Errorf("current weather: %w", err)
	}

	report := &CurrentReport{
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Location:    resp.Name,
		Unit:        unit,
	}
	if len(resp.Weather) > 0 {
		report.Description = resp.Weather[0].Description
	}
	if report.Location == "" {
		report.Location = "Unknown"
	}

	c.cache.Set(key, report)
	return report, nil
}

// CurrentByCity geocodes the city and returns current conditions.
func (c *Client) CurrentByCity(ctx context.Context, city, unit string) (*CurrentReport, error) {
	coords, err := c.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	return c.Current(ctx, coords, unit)
}

type onecallResponse struct {
	Hourly []struct {
		Dt       int64   `json:"dt"`
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Weather  []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"hourly"`
}

// Hourly returns the hourly forecast for the next 24 hours from the
// One Call 3.0 endpoint.
func (c *Client) Hourly(ctx context.Context, coords Coordinates, unit string) (*HourlyReport, error) {
	key := cacheKey("hourly", coords, unit)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*HourlyReport), nil
	}

	params := c.coordParams(coords, unit)
	params.Set("exclude", "current,minutely,daily,alerts")

	var resp onecallResponse
	if err := c.get(ctx, "/data/3.0/onecall", params, &resp); err != nil {
		return nil, fmt.Errorf("hourly forecast: %w", err)
	}

	report := &HourlyReport{Unit: unit}
	for i, hour := range resp.Hourly {
		if i >= 24 {
			break
		}
		entry := ForecastEntry{
			Time:        hour.Dt,
			Temperature: hour.Temp,
			Humidity:    hour.Humidity,
		}
		if len(hour.Weather) > 0 {
			entry.Description = hour.Weather[0].Description
		}
		report.Hourly = append(report.Hourly, entry)
	}

	c.cache.Set(key, report)
	return report, nil
}

func (c *Client) HourlyByCity(ctx context.Context, city, unit string) (*HourlyReport, error) {
	coords, err := c.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	return c.Hourly(ctx, coords, unit)
}

type fiveDayResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// FiveDay returns the 5-day / 3-hour forecast.
func (c *Client) FiveDay(ctx context.Context, coords Coordinates, unit string) (*DailyReport, error) {
	key := cacheKey("5day", coords, unit)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*DailyReport), nil
	}

	params := c.coordParams(coords, unit)

	var resp fiveDayResponse
	if err := c.get(ctx, "/data/2.5/forecast", params, &resp); err != nil {
		return nil, fmt.Errorf("5-day forecast: %w", err)
	}

	report := &DailyReport{Unit: unit}
	for _, item := range resp.List {
		entry := ForecastEntry{
			Time:        item.Dt,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
		}
		if len(item.Weather) > 0 {
			entry.Description = item.Weather[0].Description
		}
		report.Daily = append(report.Daily, entry)
	}

	c.cache.Set(key, report)
	return report, nil
}

func (c *Client) FiveDayByCity(ctx context.Context, city, unit string) (*DailyReport, error) {
	coords, err := c.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	return c.FiveDay(ctx, coords, unit)
}

func (c *Client) coordParams(coords Coordinates, unit string) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", apiUnits(unit))
	return params
}

// apiUnits maps the user-facing unit letter to the API's units param.
// K maps to standard (Kelvin).
func apiUnits(unit string) string {
	switch strings.ToUpper(unit) {
	case "F":
		return "imperial"
	case "K":
		return "standard"
	default:
		return "metric"
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return infra.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	})
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return infra.Permanent(fmt.Errorf("%w: check OPENWEATHERMAP_API_KEY", ErrInvalidAPIKey))
	case resp.StatusCode == http.StatusNotFound:
		return infra.Permanent(ErrLocationNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case infra.IsRetryableHTTPStatus(resp.StatusCode):
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return infra.Permanent(fmt.Errorf("%w: HTTP %d: %s", ErrUpstreamFailure, resp.StatusCode, body))
	}
}

func cacheKey(kind string, coords Coordinates, unit string) string {
	return fmt.Sprintf("%s|%.4f,%.4f|%s", kind, coords.Lat, coords.Lon, strings.ToUpper(unit))
}
