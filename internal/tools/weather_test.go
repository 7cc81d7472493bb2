package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voicebox/internal/infra/owm"
	"voicebox/internal/tools"
)

func newWeatherTool(t *testing.T, handler http.HandlerFunc) *tools.WeatherTool {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := owm.NewClientWithURL("test-key", server.URL, 5*time.Second, 0)
	return tools.NewWeatherTool(client, owm.Coordinates{Lat: 37.7749, Lon: -122.4194}, "F")
}

func currentPayload() map[string]any {
	return map[string]any{
		"main":    map[string]any{"temp": 72.5, "feels_like": 71.8, "humidity": 64},
		"weather": []map[string]any{{"description": "clear sky"}},
		"wind":    map[string]any{"speed": 8.05},
		"name":    "San Francisco",
	}
}

func TestWeatherTool_CurrentDefaultLocation(t *testing.T) {
	var gotLat string
	tool := newWeatherTool(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotLat = r.URL.Query().Get("lat")
		json.NewEncoder(w).Encode(currentPayload())
	})

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"forecast_type":"current"}`))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	report, ok := result.(*owm.CurrentReport)
	if !ok {
		t.Fatalf("result type: got %T", result)
	}
	if report.Temperature != 72.5 {
		t.Errorf("Temperature: got %v", report.Temperature)
	}
	if gotLat != "37.7749" {
		t.Errorf("default lat not used: got %q", gotLat)
	}
}

func TestWeatherTool_CurrentByCity(t *testing.T) {
	tool := newWeatherTool(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/1.0/direct":
			json.NewEncoder(w).Encode([]map[string]any{{"lat": 51.5074, "lon": -0.1278}})
		case "/data/2.5/weather":
			payload := currentPayload()
			payload["name"] = "London"
			json.NewEncoder(w).Encode(payload)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"forecast_type":"current","location":"London","unit":"C"}`))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	report := result.(*owm.CurrentReport)
	if report.Location != "London" {
		t.Errorf("Location: got %q", report.Location)
	}
	if report.Unit != "C" {
		t.Errorf("Unit: got %q", report.Unit)
	}
}

func TestWeatherTool_Hourly(t *testing.T) {
	tool := newWeatherTool(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/3.0/onecall" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"hourly": []map[string]any{
				{"dt": 1618317040, "temp": 70.1, "humidity": 50, "weather": []map[string]any{{"description": "clear sky"}}},
			},
		})
	})

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"forecast_type":"hourly"}`))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	report := result.(*owm.HourlyReport)
	if len(report.Hourly) != 1 || report.Hourly[0].Temperature != 70.1 {
		t.Errorf("hourly report: got %+v", report)
	}
}

func TestWeatherTool_InvalidForecastType(t *testing.T) {
	tool := newWeatherTool(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"forecast_type":"weekly"}`))
	if err == nil {
		t.Fatal("expected error for invalid forecast type")
	}
	if !strings.Contains(err.Error(), "weekly") {
		t.Errorf("error should name the bad type: %v", err)
	}
}

func TestWeatherTool_BadArguments(t *testing.T) {
	tool := newWeatherTool(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	if err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestWeatherTool_Schema(t *testing.T) {
	tool := tools.NewWeatherTool(nil, owm.Coordinates{}, "")

	if tool.Name() != "get_weather" {
		t.Errorf("Name: got %q", tool.Name())
	}

	params := tool.Parameters()
	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatal("parameters missing properties")
	}
	for _, key := range []string{"forecast_type", "location", "unit"} {
		if _, ok := props[key]; !ok {
			t.Errorf("missing property %s", key)
		}
	}

	required, ok := params["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "forecast_type" {
		t.Errorf("required: got %v", params["required"])
	}
}
