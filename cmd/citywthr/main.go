package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/swelljoe/citywthr/internal/config"
	"github.com/swelljoe/citywthr/internal/db"
	"github.com/swelljoe/citywthr/internal/handlers"
	"github.com/swelljoe/citywthr/internal/session"
	"github.com/swelljoe/citywthr/internal/weather"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
	}
	cfg := config.Load()

	// The place index only powers autocomplete; the page works without it.
	var places handlers.Database
	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		log.Printf("Warning: Database connection failed: %v", err)
		log.Println("Continuing without place suggestions...")
	} else {
		defer database.Close()
		places = database
		log.Println("Database connected successfully")
	}

	client := weather.NewClient(cfg.OpenWeather.APIKey, cfg.OpenWeather.BaseURL)
	sessions := session.NewStore()
	h := handlers.New(places, weather.NewService(client), sessions)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           newRouter(h, cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneSessions(ctx, sessions, cfg.SessionTTL)

	go func() {
		log.Printf("Server starting on http://localhost%s (%s)", srv.Addr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func newRouter(h *handlers.Handlers, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	fs := http.FileServer(http.Dir(staticDir))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	r.Get("/", h.HandleIndex)
	r.Get("/view", h.HandleView)
	r.Post("/search", h.HandleSearchSubmit)
	r.Post("/locate", h.HandleLocate)
	r.Post("/locate/unavailable", h.HandleLocateUnavailable)
	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/weather", h.HandleWeatherAPI)
		r.Get("/forecast", h.HandleForecastAPI)
		r.Get("/places", h.HandlePlaces)
	})

	return r
}

func pruneSessions(ctx context.Context, sessions *session.Store, ttl time.Duration) {
	ticker := time.NewTicker(pruneInterval(ttl))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(ttl); n > 0 {
				log.Printf("Pruned %d idle sessions (%d active)", n, sessions.Len())
			}
		}
	}
}

// pruneInterval checks four times per TTL, but never more than once a second
func pruneInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}
