package weather

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

func TestFormatTemperature(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "rounds up", input: 20.6, expected: "21°C"},
		{name: "small negative rounds to zero", input: -0.4, expected: "0°C"},
		{name: "half rounds up", input: 20.5, expected: "21°C"},
		{name: "negative half rounds toward positive", input: -0.5, expected: "0°C"},
		{name: "negative rounds down", input: -3.6, expected: "-4°C"},
		{name: "whole number", input: 15, expected: "15°C"},
		{name: "just below half", input: 7.49, expected: "7°C"},
		{name: "largest double below half", input: 0.49999999999999994, expected: "0°C"},
		{name: "just below negative half", input: -2.5000000000000004, expected: "-3°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTemperature(tt.input); got != tt.expected {
				t.Errorf("FormatTemperature(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name     string
		ts       int64
		offset   int
		expected string
	}{
		{name: "utc", ts: 1700000000, offset: 0, expected: "Tue, Nov 14"},
		{name: "crosses midnight east", ts: 1700000000, offset: 3600 * 2, expected: "Wed, Nov 15"},
		{name: "west of utc", ts: 1718841600, offset: -4 * 3600, expected: "Wed, Jun 19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.ts, tt.offset); got != tt.expected {
				t.Errorf("FormatDate(%d, %d) = %q, want %q", tt.ts, tt.offset, got, tt.expected)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name     string
		ts       int64
		offset   int
		expected string
	}{
		{name: "evening utc", ts: 1700000000, offset: 0, expected: "10:13 PM"},
		{name: "two digit morning hour", ts: 1700000000, offset: 7 * 3600, expected: "05:13 AM"},
		{name: "midnight", ts: 1718841600, offset: 0, expected: "12:00 AM"},
		{name: "half hour offset", ts: 1718841600, offset: 5*3600 + 1800, expected: "05:30 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.ts, tt.offset); got != tt.expected {
				t.Errorf("FormatTime(%d, %d) = %q, want %q", tt.ts, tt.offset, got, tt.expected)
			}
		})
	}
}

func TestIconURL(t *testing.T) {
	if got := IconURL("10d"); got != "https://openweathermap.org/img/wn/10d@2x.png" {
		t.Errorf("IconURL(10d) = %q", got)
	}
}

func TestCompassDirection(t *testing.T) {
	tests := map[int]string{
		0:   "N",
		11:  "N",
		12:  "NNE",
		90:  "E",
		180: "S",
		250: "WSW",
		270: "W",
		349: "N",
		360: "N",
		-90: "W",
		720: "N",
	}

	for deg, expected := range tests {
		if got := CompassDirection(deg); got != expected {
			t.Errorf("CompassDirection(%d) = %q, want %q", deg, got, expected)
		}
	}
}

func TestMapURL(t *testing.T) {
	got := MapURL(48.8534, 2.3488)
	expected := "https://www.openstreetmap.org/?mlat=48.8534&mlon=2.3488#map=12/48.8534/2.3488"
	if got != expected {
		t.Errorf("MapURL() = %q, want %q", got, expected)
	}
}

func TestDailySubset(t *testing.T) {
	for n := 0; n <= 60; n++ {
		list := make([]ForecastEntry, n)
		for i := range list {
			list[i] = ForecastEntry{
				Dt:      int64(1700000000 + i*3*3600),
				Main:    Measurements{Temp: gofakeit.Float64Range(-30, 45)},
				Weather: []Condition{{Icon: "01d", Description: gofakeit.Word()}},
			}
		}

		days := DailySubset(list)

		want := (n + SamplesPerDay - 1) / SamplesPerDay
		if want > ForecastDays {
			want = ForecastDays
		}
		if len(days) != want {
			t.Fatalf("N=%d: expected %d days, got %d", n, want, len(days))
		}
		for i, d := range days {
			if d.Dt != list[i*SamplesPerDay].Dt {
				t.Errorf("N=%d: day %d should be sample %d", n, i, i*SamplesPerDay)
			}
		}
	}
}

func TestDailySubset_FortySamples(t *testing.T) {
	fs := &ForecastSeries{List: make([]ForecastEntry, 40)}
	for i := range fs.List {
		fs.List[i].Dt = int64(i)
	}

	days := fs.Daily()
	expected := []int64{0, 8, 16, 24, 32}
	if len(days) != len(expected) {
		t.Fatalf("expected %d days, got %d", len(expected), len(days))
	}
	for i, d := range days {
		if d.Dt != expected[i] {
			t.Errorf("day %d: expected sample %d, got %d", i, expected[i], d.Dt)
		}
	}
}
