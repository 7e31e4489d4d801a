package weather

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a successful provider response
// cannot be decoded into the expected shape.
var ErrMalformedResponse = errors.New("malformed provider response")

// Condition is a single weather condition descriptor
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`        // e.g., "Rain"
	Description string `json:"description"` // e.g., "light rain"
	Icon        string `json:"icon"`        // e.g., "10d"
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Measurements holds temperatures in Celsius, pressure in hPa and humidity in percent
type Measurements struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type Wind struct {
	Speed float64  `json:"speed"` // m/s
	Deg   int      `json:"deg"`
	Gust  *float64 `json:"gust,omitempty"`
}

type Clouds struct {
	All int `json:"all"`
}

type Sys struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// CurrentConditions is the provider's point-in-time snapshot for a location
type CurrentConditions struct {
	Name       string       `json:"name"`
	Coord      Coord        `json:"coord"`
	Sys        Sys          `json:"sys"`
	Main       Measurements `json:"main"`
	Weather    []Condition  `json:"weather"`
	Wind       Wind         `json:"wind"`
	Clouds     *Clouds      `json:"clouds,omitempty"`
	Visibility *int         `json:"visibility,omitempty"` // meters
	Dt         int64        `json:"dt"`
	Timezone   int          `json:"timezone"` // seconds east of UTC
}

// Primary returns the first condition descriptor
func (c *CurrentConditions) Primary() Condition {
	if len(c.Weather) == 0 {
		return Condition{}
	}
	return c.Weather[0]
}

func (c *CurrentConditions) validate() error {
	if len(c.Weather) == 0 {
		return fmt.Errorf("%w: current conditions carry no weather descriptor", ErrMalformedResponse)
	}
	return nil
}

// ForecastEntry is one 3-hour forecast sample
type ForecastEntry struct {
	Dt      int64        `json:"dt"`
	Main    Measurements `json:"main"`
	Weather []Condition  `json:"weather"`
	Wind    Wind         `json:"wind"`
	DtTxt   string       `json:"dt_txt"`
}

func (e ForecastEntry) Primary() Condition {
	if len(e.Weather) == 0 {
		return Condition{}
	}
	return e.Weather[0]
}

type City struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
	Coord    Coord  `json:"coord"`
}

// ForecastSeries is the provider's list of 3-hour samples for a city
type ForecastSeries struct {
	List []ForecastEntry `json:"list"`
	City City            `json:"city"`
}

func (f *ForecastSeries) validate() error {
	for i, e := range f.List {
		if len(e.Weather) == 0 {
			return fmt.Errorf("%w: forecast entry %d carries no weather descriptor", ErrMalformedResponse, i)
		}
	}
	return nil
}

// Daily returns the one-per-day subset shown in the forecast strip
func (f *ForecastSeries) Daily() []ForecastEntry {
	return DailySubset(f.List)
}

// Report pairs current conditions with the forecast fetched right after them
type Report struct {
	Current  *CurrentConditions `json:"current"`
	Forecast *ForecastSeries    `json:"forecast"`
}
