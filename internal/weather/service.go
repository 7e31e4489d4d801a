package weather

import (
	"context"
	"log"
)

// Provider is the data-access surface the service depends on
type Provider interface {
	Current(ctx context.Context, q Query) (*CurrentConditions, error)
	Forecast(ctx context.Context, q Query) (*ForecastSeries, error)
}

// Service runs the fetch sequence behind a page update
type Service struct {
	provider Provider
}

// NewService creates a new weather service
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Lookup fetches current conditions and then the forecast for the same
// location. The forecast is only requested once current conditions have
// arrived, and the two are returned together or not at all.
func (s *Service) Lookup(ctx context.Context, q Query) (*Report, error) {
	current, err := s.provider.Current(ctx, q)
	if err != nil {
		log.Printf("Current conditions error for %q: %v", q, err)
		return nil, err
	}

	forecast, err := s.provider.Forecast(ctx, q)
	if err != nil {
		log.Printf("Forecast error for %q: %v", q, err)
		return nil, err
	}

	return &Report{Current: current, Forecast: forecast}, nil
}

func (s *Service) Current(ctx context.Context, q Query) (*CurrentConditions, error) {
	return s.provider.Current(ctx, q)
}

func (s *Service) Forecast(ctx context.Context, q Query) (*ForecastSeries, error) {
	return s.provider.Forecast(ctx, q)
}
