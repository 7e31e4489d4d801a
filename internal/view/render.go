package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode"

	"github.com/swelljoe/citywthr/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

// Model is what the templates see
type Model struct {
	View     ViewKind
	Locating bool
	Error    string
	Current  *weather.CurrentConditions
	Forecast *weather.ForecastSeries
	Days     []weather.ForecastEntry
	Query    string
}

// NewModel derives the template model from a page. It does not modify p.
func NewModel(p Page, query string) Model {
	m := Model{
		View:     p.View(),
		Locating: p.Locating(),
		Query:    query,
	}
	switch m.View {
	case ViewError:
		m.Error = p.Error()
	case ViewPopulated:
		m.Current = p.Current()
		m.Forecast = p.Forecast()
		m.Days = p.Forecast().Daily()
	}
	return m
}

// Renderer executes the page templates
type Renderer struct {
	templates *template.Template
}

var funcs = template.FuncMap{
	"temp":       weather.FormatTemperature,
	"date":       weather.FormatDate,
	"clock":      weather.FormatTime,
	"icon":       weather.IconURL,
	"compass":    weather.CompassDirection,
	"mapURL":     weather.MapURL,
	"capitalize": capitalize,
	"seq": func(n int) []int {
		s := make([]int, n)
		for i := range s {
			s[i] = i
		}
		return s
	},
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Page writes the full document
func (r *Renderer) Page(w io.Writer, m Model) error {
	return r.templates.ExecuteTemplate(w, "page", m)
}

// Fragment writes only the view region
func (r *Renderer) Fragment(w io.Writer, m Model) error {
	return r.templates.ExecuteTemplate(w, "view", m)
}

// capitalize upper-cases the first letter of each word ("light rain" -> "Light Rain")
func capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
