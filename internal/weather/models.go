package weather

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Theme is the day/night visual mode derived from the weather icon code.
type Theme string

const (
	ThemeDay   Theme = "day"
	ThemeNight Theme = "night"
)

// Reading is the current-conditions record for one location. Metric units:
// temperatures in °C, wind speed in m/s, humidity in percent.
type Reading struct {
	Temperature   float64   `json:"temperatureC"`
	FeelsLike     float64   `json:"feelsLikeC"`
	Humidity      int       `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeedMs"`
	WindDeg       float64   `json:"windDeg,omitempty"`
	ConditionCode string    `json:"conditionCode"`
	ConditionText string    `json:"conditionText"`
	IconCode      string    `json:"iconCode"`
	ObservedAt    time.Time `json:"observedAt"` // always UTC
}

var titleCaser = cases.Title(language.English)

// Theme returns the night theme for icon codes carrying the "n" suffix,
// day otherwise.
func (r Reading) Theme() Theme {
	if strings.Contains(r.IconCode, "n") {
		return ThemeNight
	}
	return ThemeDay
}

// TemperatureLabel renders the temperature rounded to whole degrees, e.g. "15°".
func (r Reading) TemperatureLabel() string {
	return fmt.Sprintf("%d°", int(math.Round(r.Temperature)))
}

// FeelsLikeLabel renders the apparent temperature, e.g. "14°".
func (r Reading) FeelsLikeLabel() string {
	return fmt.Sprintf("%d°", int(math.Round(r.FeelsLike)))
}

// HumidityLabel renders humidity as a percentage, e.g. "60%".
func (r Reading) HumidityLabel() string {
	return fmt.Sprintf("%d%%", r.Humidity)
}

// WindLabel renders wind speed in m/s with one decimal, e.g. "3.2 m/s".
func (r Reading) WindLabel() string {
	return fmt.Sprintf("%.1f m/s", r.WindSpeed)
}

// ConditionTitle renders the condition text in title case,
// "clear sky" -> "Clear Sky".
func (r Reading) ConditionTitle() string {
	return titleCaser.String(r.ConditionText)
}
