package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/swelljoe/citywthr/internal/db"
	"github.com/swelljoe/citywthr/internal/session"
	"github.com/swelljoe/citywthr/internal/view"
	"github.com/swelljoe/citywthr/internal/weather"
)

// Database defines the interface for database operations needed by handlers
type Database interface {
	SearchPlaces(query string) ([]db.Place, error)
	Ping() error
}

// WeatherService is the lookup surface the page and the JSON API need
type WeatherService interface {
	Lookup(ctx context.Context, q weather.Query) (*weather.Report, error)
	Current(ctx context.Context, q weather.Query) (*weather.CurrentConditions, error)
	Forecast(ctx context.Context, q weather.Query) (*weather.ForecastSeries, error)
}

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	db       Database
	weather  WeatherService
	sessions *session.Store
	renderer *view.Renderer
}

// New creates a new Handlers instance. database may be nil when no place
// index is available.
func New(database Database, wService WeatherService, sessions *session.Store) *Handlers {
	renderer, err := view.NewRenderer()
	if err != nil {
		log.Printf("Warning: Failed to parse templates: %v", err)
	}
	if sessions == nil {
		sessions = session.NewStore()
	}

	return &Handlers{
		db:       database,
		weather:  wService,
		sessions: sessions,
		renderer: renderer,
	}
}

// sessionFor returns the caller's page session, creating and mounting a new
// one when the cookie is missing or has expired.
func (h *Handlers) sessionFor(w http.ResponseWriter, r *http.Request) (string, view.Page) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if page, ok := h.sessions.Get(c.Value); ok {
			return c.Value, page
		}
	}

	id, page := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, page
}

// lookupInto runs one fetch cycle for the session: loading, then populated
// or error. Results of a request superseded by a newer one are discarded.
func (h *Handlers) lookupInto(ctx context.Context, id string, q weather.Query) {
	var gen uint64
	h.sessions.Update(id, func(p *view.Page) { gen = p.Begin() })

	report, err := h.weather.Lookup(ctx, q)

	applied := false
	h.sessions.Update(id, func(p *view.Page) {
		if err != nil {
			applied = p.Fail(gen, weather.DisplayMessage(err))
			return
		}
		applied = p.Succeed(gen, report.Current, report.Forecast)
	})
	if !applied {
		log.Printf("Discarding stale result for %q (generation %d)", q, gen)
	}
}

// redirectHome sends the browser back to the page after a form post. The
// state the post produced is kept for that one load.
func (h *Handlers) redirectHome(w http.ResponseWriter, r *http.Request, id string) {
	h.sessions.Update(id, func(p *view.Page) { p.Hold() })
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func searchValue(page view.Page) string {
	if cc := page.Current(); cc != nil && page.View() == view.ViewPopulated {
		return cc.Name
	}
	return ""
}

func (h *Handlers) renderPage(w http.ResponseWriter, page view.Page) {
	if h.renderer == nil {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
	<title>Weather Forecast</title>
</head>
<body>
	<h1>Weather Forecast</h1>
	<p>Weather application - templates not loaded</p>
</body>
</html>`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Page(w, view.NewModel(page, searchValue(page))); err != nil {
		log.Printf("Error executing template: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleIndex handles the main page
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	id, _ := h.sessionFor(w, r)
	page, _ := h.sessions.Update(id, func(p *view.Page) {
		// Any load other than the redirect after a form post starts over.
		if p.Presented() {
			p.Remount()
		}
		p.MarkPresented()
	})
	h.renderPage(w, page)
}

// HandleView renders only the view region for the caller's session
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessionFor(w, r)
	page, _ := h.sessions.Update(id, func(p *view.Page) { p.MarkPresented() })
	if h.renderer == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Fragment(w, view.NewModel(page, "")); err != nil {
		log.Printf("Template error: %v", err)
	}
}

// HandleSearchSubmit fetches weather for the submitted city name. Blank
// input is ignored without contacting the provider.
func (h *Handlers) HandleSearchSubmit(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessionFor(w, r)

	if city, ok := view.ParseSearch(r.FormValue("city")); ok {
		h.lookupInto(r.Context(), id, weather.CityQuery(city))
	}

	h.redirectHome(w, r, id)
}

// HandleLocate fetches weather for the coordinates reported by the browser
func (h *Handlers) HandleLocate(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessionFor(w, r)

	lat, lon, err := parseCoordinates(r.FormValue("lat"), r.FormValue("lon"))
	if err != nil {
		log.Printf("Locate error: %v", err)
		h.sessions.Update(id, func(p *view.Page) { p.LocationUnavailable() })
	} else {
		h.lookupInto(r.Context(), id, weather.CoordsQuery(lat, lon))
	}

	h.redirectHome(w, r, id)
}

// HandleLocateUnavailable records that the browser could not or would not
// share its position. The page falls back to the empty prompt.
func (h *Handlers) HandleLocateUnavailable(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessionFor(w, r)

	if reason := r.FormValue("reason"); reason != "" {
		log.Printf("Geolocation unavailable: %s", reason)
	}
	h.sessions.Update(id, func(p *view.Page) { p.LocationUnavailable() })

	h.redirectHome(w, r, id)
}

// HandleHealth handles health check endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ok"
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
		}
	} else {
		status = "no_database"
	}

	w.Write([]byte(`{"status":"` + status + `"}`))
}

// HandleWeatherAPI returns the provider's current conditions as JSON
func (h *Handlers) HandleWeatherAPI(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cc, err := h.weather.Current(r.Context(), q)
	if err != nil {
		log.Printf("Weather error: %v", err)
		writeError(w, lookupStatus(err), weather.DisplayMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

// HandleForecastAPI returns the provider's 3-hour forecast list as JSON
func (h *Handlers) HandleForecastAPI(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fs, err := h.weather.Forecast(r.Context(), q)
	if err != nil {
		log.Printf("Forecast error: %v", err)
		writeError(w, lookupStatus(err), weather.DisplayMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

type suggestion struct {
	Label string `json:"label"`
	db.Place
}

// HandlePlaces performs city autocomplete against the place index
func (h *Handlers) HandlePlaces(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < 2 || h.db == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
		return
	}

	places, err := h.db.SearchPlaces(q)
	if err != nil {
		log.Printf("Search error: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	suggestions := make([]suggestion, 0, len(places))
	for _, p := range places {
		suggestions = append(suggestions, suggestion{Label: p.Label(), Place: p})
	}

	data, err := json.Marshal(suggestions)
	if err != nil {
		log.Printf("JSON encode error: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		log.Printf("Response write error: %v", err)
	}
}

// queryFromRequest reads either ?city= or ?lat=&lon=
func queryFromRequest(r *http.Request) (weather.Query, error) {
	values := r.URL.Query()
	if city, ok := view.ParseSearch(values.Get("city")); ok {
		return weather.CityQuery(city), nil
	}

	latStr, lonStr := values.Get("lat"), values.Get("lon")
	if latStr == "" || lonStr == "" {
		return weather.Query{}, errors.New("please provide a city or coordinates")
	}
	lat, lon, err := parseCoordinates(latStr, lonStr)
	if err != nil {
		return weather.Query{}, err
	}
	return weather.CoordsQuery(lat, lon), nil
}

// parseCoordinates parses and validates latitude and longitude strings
func parseCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", latStr)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range: %v", lat)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", lonStr)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude out of range: %v", lon)
	}

	return lat, lon, nil
}

func lookupStatus(err error) int {
	if errors.Is(err, weather.ErrFetchFailed) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}
