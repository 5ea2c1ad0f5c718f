package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/taskner/marketplace/internal/infrastructure/config"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
	customMW "github.com/taskner/marketplace/internal/middleware"
	"github.com/taskner/marketplace/internal/orchestration"
)

type RouterDeps struct {
	RedisClient   *redis.Client
	BookingFacade *orchestration.BookingFacade
	PaymentFacade orchestration.PaymentOrchestrator
	Metrics       *observability.Metrics
	CORSConfig    config.CORSConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.RedisClient)
	bookingH := NewBookingController(deps.BookingFacade)
	paymentH := NewPaymentController(deps.PaymentFacade)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bookings", bookingH.Create)
		r.Get("/bookings/{id}", bookingH.Get)
		r.Post("/payments", paymentH.Process)
	})

	return r
}
