package main

import (
	"context"
	"log"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/cache"
	"github.com/civicreport/api/internal/config"
	"github.com/civicreport/api/internal/database"
	"github.com/civicreport/api/internal/handler"
	"github.com/civicreport/api/internal/limiter"
	"github.com/civicreport/api/internal/mailer"
	"github.com/civicreport/api/internal/notification"
	"github.com/civicreport/api/internal/scheduler"
	"github.com/civicreport/api/internal/session"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()
	if logFile := config.InitLogging(cfg.LogFile); logFile != nil {
		defer logFile.Close()
	}
	gin.DefaultWriter = config.LogWriter

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seeded, err := database.SeedDefaults(db)
	if err != nil {
		log.Fatalf("Failed to seed defaults: %v", err)
	}
	log.Printf("Seeded %d departments, %d categories, %d subcategories",
		seeded.Departments, seeded.Categories, seeded.Subcategories)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		created, err := database.EnsureAdmin(db, cfg.AdminName, cfg.AdminEmail, hash)
		if err != nil {
			log.Fatalf("Failed to create admin account: %v", err)
		}
		if created {
			log.Printf("Created admin account %s", cfg.AdminEmail)
		}
	}

	s, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	// Initialize Redis cache
	var notifications notification.Store = notification.NewMemoryStore()
	var rateLimiter *limiter.Limiter
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		// Continue without Redis (fail-open): notifications stay in memory
		// and requests are not rate limited.
	} else {
		defer redisCache.Close()
		notifications = notification.NewRedisStore(redisCache)
		rateLimiter = limiter.NewLimiter(redisCache)
	}

	registry := notification.NewRegistry(notifications)
	sessions := session.NewManager(registry)
	notifier := handler.NewNotifier(registry, mailer.New(cfg))
	validator.RegisterBindings()

	var google *oauth2.Config
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	// Initialize and start background scheduler if enabled
	deps := handler.Deps{
		Store:       s,
		Sessions:    sessions,
		Notifier:    notifier,
		Limiter:     rateLimiter,
		Google:      google,
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
	}
	if cfg.SchedulerEnabled {
		statsScheduler := scheduler.NewStatsScheduler(s, sessions, scheduler.SchedulerConfig{
			Interval: cfg.SchedulerInterval,
		})
		go statsScheduler.Start(context.Background())
		defer statsScheduler.Stop()
		deps.Scheduler = statsScheduler
		log.Println("Background stats scheduler started")
	}

	r := handler.NewRouter(deps)

	log.Printf("API server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
