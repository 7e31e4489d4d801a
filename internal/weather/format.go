package weather

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"
)

const (
	// SamplesPerDay assumes the provider's fixed 3-hour interval.
	SamplesPerDay = 8
	ForecastDays  = 5
)

// DailySubset picks every 8th sample starting at index 0 and keeps at most
// five. The timestamps are not consulted.
func DailySubset(list []ForecastEntry) []ForecastEntry {
	days := make([]ForecastEntry, 0, ForecastDays)
	for i := 0; i < len(list) && len(days) < ForecastDays; i += SamplesPerDay {
		days = append(days, list[i])
	}
	return days
}

// FormatTemperature rounds half up like JavaScript's Math.round
// (-0.5 becomes 0, not -1).
func FormatTemperature(temp float64) string {
	// temp+0.5 can round up in floating point, so compare the fraction instead.
	rounded := math.Floor(temp)
	if temp-rounded >= 0.5 {
		rounded++
	}
	return fmt.Sprintf("%d°C", int(rounded))
}

// FormatDate renders a Unix timestamp as e.g. "Tue, Nov 14" in the
// location's local time. offset is seconds east of UTC.
func FormatDate(ts int64, offset int) string {
	return localTime(ts, offset).Format("Mon, Jan 2")
}

// FormatTime renders a Unix timestamp as e.g. "07:05 AM" in the location's
// local time.
func FormatTime(ts int64, offset int) string {
	return localTime(ts, offset).Format("03:04 PM")
}

func localTime(ts int64, offset int) time.Time {
	return time.Unix(ts, 0).In(time.FixedZone("", offset))
}

// IconURL builds the provider's icon image URL for an icon key like "10d"
func IconURL(icon string) string {
	return "https://openweathermap.org/img/wn/" + icon + "@2x.png"
}

var compassPoints = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection maps a wind bearing in degrees to a 16-point label
func CompassDirection(deg int) string {
	d := ((deg % 360) + 360) % 360
	idx := int(math.Floor(float64(d)/22.5+0.5)) % len(compassPoints)
	return compassPoints[idx]
}

// MapURL links to an OpenStreetMap view centred on the coordinates
func MapURL(lat, lon float64) string {
	la := strconv.FormatFloat(lat, 'f', 4, 64)
	lo := strconv.FormatFloat(lon, 'f', 4, 64)
	params := url.Values{}
	params.Set("mlat", la)
	params.Set("mlon", lo)
	return "https://www.openstreetmap.org/?" + params.Encode() + "#map=12/" + la + "/" + lo
}
