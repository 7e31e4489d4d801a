package weather

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
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	resourceCurrent  = "weather"
	resourceForecast = "forecast"

	// Shown when the provider gives no reason of its own.
	notFoundMessage = "City not found"
)

// ErrFetchFailed matches every *FetchError.
var ErrFetchFailed = errors.New("weather fetch failed")

// FetchError is the one error kind the client returns when it cannot get a
// successful response, whether the cause was the network, the API key or an
// unknown city.
type FetchError struct {
	StatusCode int    // 0 when no response was received
	Message    string // provider text, or "City not found"
	Err        error  // transport error, if any
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("weather fetch failed (status %d): %s", e.StatusCode, e.Message)
}

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

func (e *FetchError) Unwrap() error { return e.Err }

// Query selects a location either by city name or by coordinates
type Query struct {
	City     string
	Lat      float64
	Lon      float64
	ByCoords bool
}

func CityQuery(city string) Query {
	return Query{City: city}
}

func CoordsQuery(lat, lon float64) Query {
	return Query{Lat: lat, Lon: lon, ByCoords: true}
}

func (q Query) String() string {
	if q.ByCoords {
		return fmt.Sprintf("%.4f,%.4f", q.Lat, q.Lon)
	}
	return q.City
}

func (q Query) params() url.Values {
	params := url.Values{}
	if q.ByCoords {
		params.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	} else {
		params.Set("q", q.City)
	}
	return params
}

// Client handles OpenWeatherMap API interactions
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new OpenWeatherMap client. An empty baseURL selects
// the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, resource string, q Query) ([]byte, error) {
	params := q.params()
	params.Set("appid", c.APIKey)
	params.Set("units", "metric")
	requestURL := c.BaseURL + "/" + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &FetchError{Message: notFoundMessage, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{Message: notFoundMessage, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: notFoundMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: providerMessage(body)}
	}

	return body, nil
}

// providerMessage extracts the provider's error text, e.g.
// {"cod":"404","message":"city not found"}.
func providerMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return notFoundMessage
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return notFoundMessage
}

// Current fetches current conditions for a city or coordinate pair
func (c *Client) Current(ctx context.Context, q Query) (*CurrentConditions, error) {
	data, err := c.get(ctx, resourceCurrent, q)
	if err != nil {
		return nil, err
	}

	var cc CurrentConditions
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := cc.validate(); err != nil {
		return nil, err
	}
	return &cc, nil
}

// Forecast fetches the 3-hour forecast list for a city or coordinate pair
func (c *Client) Forecast(ctx context.Context, q Query) (*ForecastSeries, error) {
	data, err := c.get(ctx, resourceForecast, q)
	if err != nil {
		return nil, err
	}

	var fs ForecastSeries
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := fs.validate(); err != nil {
		return nil, err
	}
	return &fs, nil
}

// DisplayMessage converts any lookup error into the text shown to the user
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return "An error occurred"
}
