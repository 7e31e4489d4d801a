package view

import (
	"strings"

	"github.com/swelljoe/citywthr/internal/weather"
)

// Status is the page's position in the fetch lifecycle
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLocating  Status = "locating"
	StatusLoading   Status = "loading"
	StatusError     Status = "error"
	StatusPopulated Status = "populated"
)

// ViewKind names the one block rendered below the search form
type ViewKind string

const (
	ViewLoading   ViewKind = "loading"
	ViewError     ViewKind = "error"
	ViewPopulated ViewKind = "populated"
	ViewEmpty     ViewKind = "empty"
)

// Page is the transient state behind one browser's weather page. It is only
// changed through the transition methods below.
type Page struct {
	status     Status
	current    *weather.CurrentConditions
	forecast   *weather.ForecastSeries
	errMsg     string
	generation uint64
	presented  bool
}

// NewPage returns a page in the idle state
func NewPage() Page {
	return Page{status: StatusIdle}
}

func (p *Page) Status() Status { return p.status }
func (p *Page) Current() *weather.CurrentConditions { return p.current }
func (p *Page) Forecast() *weather.ForecastSeries { return p.forecast }
func (p *Page) Error() string { return p.errMsg }
func (p *Page) Generation() uint64 { return p.generation }
func (p *Page) Locating() bool { return p.status == StatusLocating }
func (p *Page) Presented() bool { return p.presented }

// Mount starts waiting for the browser's position
func (p *Page) Mount() {
	p.status = StatusLocating
}

// Remount discards everything and starts over as a freshly loaded page.
// Results of requests started before the remount are dropped.
func (p *Page) Remount() {
	p.generation++
	p.current = nil
	p.forecast = nil
	p.errMsg = ""
	p.presented = false
	p.status = StatusLocating
}

// MarkPresented records that a settled state has been shown to the browser.
// The next document load after that is a remount.
func (p *Page) MarkPresented() {
	switch p.status {
	case StatusIdle, StatusError, StatusPopulated:
		p.presented = true
	}
}

// Hold keeps the current state for the next document load, which is the
// redirect that follows a form post.
func (p *Page) Hold() {
	p.presented = false
}

// LocationUnavailable falls back to the empty prompt after a geolocation
// denial or an unsupported browser. No error is surfaced. It has no effect
// once a fetch has started.
func (p *Page) LocationUnavailable() bool {
	if p.status != StatusLocating {
		return false
	}
	p.status = StatusIdle
	p.presented = false
	return true
}

// Begin enters loading and returns the generation the caller must present
// when reporting the result.
func (p *Page) Begin() uint64 {
	p.generation++
	p.status = StatusLoading
	p.errMsg = ""
	p.presented = false
	return p.generation
}

// Succeed stores a fetched pair if gen is still the latest request.
// Responses from superseded requests are dropped.
func (p *Page) Succeed(gen uint64, current *weather.CurrentConditions, forecast *weather.ForecastSeries) bool {
	if gen != p.generation || current == nil || forecast == nil {
		return false
	}
	p.current = current
	p.forecast = forecast
	p.errMsg = ""
	p.status = StatusPopulated
	p.presented = false
	return true
}

// Fail clears any previous data and records the message if gen is still
// the latest request.
func (p *Page) Fail(gen uint64, message string) bool {
	if gen != p.generation {
		return false
	}
	p.current = nil
	p.forecast = nil
	p.errMsg = message
	p.status = StatusError
	p.presented = false
	return true
}

// View selects the single view to render
func (p *Page) View() ViewKind {
	switch p.status {
	case StatusLoading:
		return ViewLoading
	case StatusError:
		return ViewError
	case StatusPopulated:
		if p.current != nil && p.forecast != nil {
			return ViewPopulated
		}
	}
	return ViewEmpty
}

// ParseSearch trims a submitted city name. Blank input is rejected.
func ParseSearch(raw string) (string, bool) {
	city := strings.TrimSpace(raw)
	return city, city != ""
}
