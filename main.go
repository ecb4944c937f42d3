// main.go - hackmate team service
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackmate/config"
	"hackmate/database"
	"hackmate/handlers"
	"hackmate/middleware"
	"hackmate/routes"
	"hackmate/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer database.CloseDB()
	db := database.GetDB()

	rdb, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️ Redis unavailable, hackathon cache disabled: %v", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Services
	hackathons := services.NewHackathonService(db)
	var lookup services.HackathonLookup = hackathons
	var memo *services.CachedHackathons
	if rdb != nil {
		memo = services.NewCachedHackathons(hackathons, rdb, cfg.HackathonCacheTTL)
		lookup = memo
	}

	teams := services.NewTeamService(db, lookup)
	teams.SetCodeAttempts(cfg.TeamCodeAttempts)

	hub := services.NewEventHub()

	handlers.Init(handlers.Deps{
		Teams:         teams,
		Profiles:      services.NewProfileService(db),
		Hackathons:    hackathons,
		HackathonMemo: memo,
		Notifications: services.NewNotificationService(db, hub),
		Events:        hub,
	})

	// Initialize cleanup service
	cleanup := services.NewCleanupService(db, cfg.CleanupInterval, cfg.NotificationRetention)
	cleanup.Start()
	defer cleanup.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth, err := middleware.NewAuthenticator(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler(cfg.IsProduction()),
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	limiter.StartCleanup(5*time.Minute, ctx.Done())
	app.Use(limiter.Handler())

	joinLimiter := middleware.NewRateLimiter(cfg.JoinRateRequests, cfg.JoinRateWindow)
	joinLimiter.StartCleanup(5*time.Minute, ctx.Done())

	routes.Setup(app, auth, joinLimiter)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 HTTP server starting on port %s", cfg.Port)
	log.Printf("📊 Environment: %s", cfg.AppEnv)
	log.Printf("🗄️ Database driver: %s", cfg.DBDriver)
	log.Printf("🔐 Auth: jwks=%v firebase=%v", cfg.JWKSURL != "", cfg.FirebaseProjectID != "")
	log.Printf("⚡ Hackathon cache: %v", memo != nil)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("HTTP server stopped: %v", err)
	}
}

func customErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		} else if !production {
			message = err.Error()
		}

		// Don't expose internal errors in production
		if production && code == fiber.StatusInternalServerError {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
