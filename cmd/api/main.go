package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/menuqr/menuqr/internal/handlers"
	"github.com/menuqr/menuqr/internal/mailer"
	"github.com/menuqr/menuqr/internal/repository"
	"github.com/menuqr/menuqr/internal/service"
	"github.com/menuqr/menuqr/pkg/cache"
	"github.com/menuqr/menuqr/pkg/config"
	"github.com/menuqr/menuqr/pkg/database"
	"github.com/menuqr/menuqr/pkg/events"
	"github.com/menuqr/menuqr/pkg/logger"
	mw "github.com/menuqr/menuqr/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Menu cache (Redis); the public menu falls back to the database if
	// Redis is unavailable.
	var menuCache service.MenuCacheStore
	if c, err := cache.New(cfg.Redis.URL, cfg.Redis.MenuCacheTTL); err != nil {
		logger.Warn("Failed to connect to Redis, public menu cache disabled", "error", err)
	} else {
		menuCache = c
		defer c.Close()
	}

	// Event bus; optional in development.
	var eventBus events.Publisher
	if bus, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("Failed to connect to NATS, events disabled", "error", err)
		eventBus = events.NewNoopBus()
	} else {
		eventBus = bus
		defer bus.Close()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	restaurantRepo := repository.NewRestaurantRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	dishRepo := repository.NewDishRepository(pool)

	// Initialize services
	authService := service.NewAuthService(userRepo, newMailer(cfg), eventBus, cfg.Auth.VerificationCodeTTL)
	menuService := service.NewMenuService(restaurantRepo, categoryRepo, dishRepo, menuCache, eventBus, cfg.App.BaseURL)

	// Initialize handlers
	h := handlers.New(authService, menuService, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.BaseURL, "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/verify", h.Verify)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Get("/me", h.Me)
		})
	})

	r.Get("/public/menu/{id}", h.PublicMenu)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", h.ListRestaurants)
			r.Post("/", h.CreateRestaurant)
			r.Get("/{id}", h.GetRestaurant)
			r.Delete("/{id}", h.DeleteRestaurant)
			r.Get("/{id}/qr", h.RestaurantQR)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", h.ListDishes)
			r.Post("/", h.CreateDish)
			r.Delete("/{id}", h.DeleteDish)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// newMailer picks the transport: dev logging, MailerSend when an API
// key is present, SMTP otherwise.
func newMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.SMTPFromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost, cfg.Email.SMTPPort,
		cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass,
		cfg.Email.SMTPUseTLS,
	)
}
