package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/roastery-dev/roastery/pkg/config"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/iam/user/userapi"
	"github.com/roastery-dev/roastery/pkg/logx"
)

func main() {
	// 1. Initialize Logger
	logx.SetLevel(logx.ParseLevel(getEnv("LOG_LEVEL", "info")))

	logx.Info("🚀 Starting Roastery API Server...")

	// 2. Load Config & Initialize Dependency Container
	cfg := config.Load()
	if cfg.Auth.JWT.Secret == "" {
		logx.Fatal("JWT_SECRET is required")
	}

	container := NewContainer(cfg)
	defer container.Cleanup()

	// 3. Verify every policy the route table declares has a handler.
	// A missing handler is a deployment defect; fail the boot, not a request.
	if err := container.IAM.PolicyStorage.Require(auth.PolicyKinds(userapi.AdminAccess)...); err != nil {
		logx.Fatalf("Policy handler coverage check failed: %v", err)
	}

	// 4. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Roastery API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		IdleTimeout:           120 * time.Second,
	})

	// 5. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 6. Health Check & Info Endpoints
	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler)

	// 7. Register Routes

	// Authentication: /authentication/*
	container.IAM.AuthHandlers.RegisterRoutes(app, container.IAM.Guard)
	logx.Info("✓ Authentication routes registered")

	// API key management: /api-keys/*
	container.IAM.APIKeyHandlers.RegisterRoutes(app, container.IAM.Guard)
	logx.Info("✓ API key routes registered")

	// Account administration: /admin/users (staff only)
	container.IAM.UserHandlers.RegisterRoutes(app, container.IAM.Guard)

	admin := app.Group("/admin", container.IAM.Guard.Protect(userapi.AdminAccess))
	admin.Get("/whoami", whoamiHandler)
	logx.Info("✓ Admin routes registered")

	// 8. 404 Handler
	app.Use(notFoundHandler)

	// 9. Start Server with Graceful Shutdown
	startServer(app, cfg.Server.Port)
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler returns a health check handler
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "roastery-api",
			"version": getEnv("APP_VERSION", "1.0.0"),
		}

		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(c.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// infoHandler returns basic API information
func infoHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "Roastery API",
		"version": getEnv("APP_VERSION", "1.0.0"),
		"endpoints": fiber.Map{
			"authentication": fiber.Map{
				"sign_up":        "POST /authentication/sign-up",
				"sign_in":        "POST /authentication/sign-in",
				"refresh_tokens": "POST /authentication/refresh-tokens",
				"sign_out":       "POST /authentication/sign-out",
				"google":         "POST /authentication/google",
				"enroll_2fa":     "POST /authentication/2fa/generate",
			},
			"api_keys": fiber.Map{
				"create": "POST /api-keys",
				"list":   "GET /api-keys",
				"revoke": "DELETE /api-keys/:uuid",
			},
			"admin": fiber.Map{
				"list_users": "GET /admin/users",
				"whoami":     "GET /admin/whoami",
			},
			"health": "GET /health",
		},
		"authentication": fiber.Map{
			"types": []string{"JWT", "API Key"},
			"headers": fiber.Map{
				"jwt":     "Authorization: Bearer <token>",
				"api_key": "Authorization: ApiKey <key>",
			},
		},
	})
}

// whoamiHandler echoes the authenticated principal, staff only.
func whoamiHandler(c *fiber.Ctx) error {
	active, ok := auth.ActiveUserFromCtx(c)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "no principal on request")
	}
	return c.JSON(active)
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	// Fiber's own errors (body limit, method not allowed, ...)
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	if e, ok := err.(*errx.Error); ok {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": c.Get("X-Request-ID"),
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		if getEnv("DEBUG", "false") == "true" && e.Err != nil {
			response["underlying_error"] = e.Err.Error()
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"type":       "INTERNAL",
		"code":       "INTERNAL_ERROR",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Server Lifecycle
// ============================================================================

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, port string) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
