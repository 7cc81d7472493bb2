package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"voicebox/internal/infra/owm"
)

const (
	forecastCurrent = "current"
	forecastHourly  = "hourly"
	forecast5Day    = "5day"
)

// WeatherClient is the slice of the OpenWeatherMap client the tool
// needs.
type WeatherClient interface {
	Current(ctx context.Context, coords owm.Coordinates, unit string) (*owm.CurrentReport, error)
	CurrentByCity(ctx context.Context, city, unit string) (*owm.CurrentReport, error)
	Hourly(ctx context.Context, coords owm.Coordinates, unit string) (*owm.HourlyReport, error)
	HourlyByCity(ctx context.Context, city, unit string) (*owm.HourlyReport, error)
	FiveDay(ctx context.Context, coords owm.Coordinates, unit string) (*owm.DailyReport, error)
	FiveDayByCity(ctx context.Context, city, unit string) (*owm.DailyReport, error)
}

// WeatherTool answers get_weather calls from the model. Without an
// explicit location it falls back to the configured home coordinates.
type WeatherTool struct {
	client          WeatherClient
	defaultLocation owm.Coordinates
	defaultUnit     string
}

func NewWeatherTool(client WeatherClient, defaultLocation owm.Coordinates, defaultUnit string) *WeatherTool {
	if defaultUnit == "" {
		defaultUnit = "F"
	}
	return &WeatherTool{
		client:          client,
		defaultLocation: defaultLocation,
		defaultUnit:     defaultUnit,
	}
}

func (t *WeatherTool) Name() string {
	return "get_weather"
}

func (t *WeatherTool) Description() string {
	return "Get weather information for a location. Provide forecast_type ('current', 'hourly', or '5day') and optionally a location name and unit ('F', 'C', or 'K')."
}

func (t *WeatherTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"forecast_type": map[string]any{
				"type":        "string",
				"enum":        []string{forecastCurrent, forecastHourly, forecast5Day},
				"description": "Which forecast to fetch",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "City name, e.g. 'London' or 'New York, US'",
			},
			"unit": map[string]any{
				"type":        "string",
				"enum":        []string{"F", "C", "K"},
				"description": "Temperature unit",
			},
		},
		"required": []string{"forecast_type"},
	}
}

type weatherArgs struct {
	ForecastType string `json:"forecast_type"`
	Location     string `json:"location"`
	Unit         string `json:"unit"`
}

func (t *WeatherTool) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	var args weatherArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("parsing arguments: %w", err)
		}
	}

	unit := strings.ToUpper(args.Unit)
	if unit == "" {
		unit = t.defaultUnit
	}

	if args.Location != "" {
		switch args.ForecastType {
		case forecastCurrent:
			return t.client.CurrentByCity(ctx, args.Location, unit)
		case forecastHourly:
			return t.client.HourlyByCity(ctx, args.Location, unit)
		case forecast5Day:
			return t.client.FiveDayByCity(ctx, args.Location, unit)
		}
	} else {
		switch args.ForecastType {
		case forecastCurrent:
			return t.client.Current(ctx, t.defaultLocation, unit)
		case forecastHourly:
			return t.client.Hourly(ctx, t.defaultLocation, unit)
		case forecast5Day:
			return t.client.FiveDay(ctx, t.defaultLocation, unit)
		}
	}

	return nil, fmt.Errorf("invalid forecast type: %q", args.ForecastType)
}
