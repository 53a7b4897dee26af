package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/notehive/core/docs"
	httpHandlers "github.com/notehive/core/internal/adapters/http"
	"github.com/notehive/core/internal/adapters/repository"
	"github.com/notehive/core/internal/application/services"
	"github.com/notehive/core/internal/infrastructure/config"
	"github.com/notehive/core/internal/infrastructure/database"
	"github.com/notehive/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Passwords need at least one letter and one digit; length is covered
	// by the min/max tags on the request struct.
	v.RegisterValidation("notepassword", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		var hasLetter, hasDigit bool
		for _, r := range password {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
				hasLetter = true
			case r >= '0' && r <= '9':
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})

	return v
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: newValidator()}

	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	noteRepo := repository.NewNoteRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	invitationRepo := repository.NewInvitationRepository(db)
	authRepo := repository.NewAuthRepository(db.DB)

	// Initialize services
	authService := services.NewAuthService(userRepo, authRepo, cfg, appLogger)
	noteService := services.NewNoteService(noteRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, noteRepo, appLogger)
	invitationService := services.NewInvitationService(noteRepo, userRepo, invitationRepo, authService, cfg, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService)
	noteHandler := httpHandlers.NewNoteHandler(noteService, invitationService)
	taskHandler := httpHandlers.NewTaskHandler(taskService)
	invitationHandler := httpHandlers.NewInvitationHandler(invitationService)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()
	server.setupRoutes(authHandler, noteHandler, taskHandler, invitationHandler, authService)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.config.Security.RateLimitRequests),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return rateLimitResponse(c)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return rateLimitResponse(c)
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

func rateLimitResponse(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, httpHandlers.Response{
		Success: false,
		Error: &httpHandlers.ErrorPayload{
			Code:    "RATE_LIMIT_EXCEEDED",
			Message: "Too many requests, please try again later",
		},
	})
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, noteHandler *httpHandlers.NoteHandler, taskHandler *httpHandlers.TaskHandler, invitationHandler *httpHandlers.InvitationHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := s.echo.Group("/api/v1")

	requireAuth := httpHandlers.AuthMiddleware(authService, s.logger)

	// Auth routes
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout, requireAuth)
	authGroup.GET("/me", authHandler.Me, requireAuth)

	// Note routes (authenticated)
	noteGroup := v1.Group("/notes", requireAuth)
	noteGroup.GET("", noteHandler.List)
	noteGroup.POST("", noteHandler.Create)
	noteGroup.GET("/:id", noteHandler.Get)
	noteGroup.PUT("/:id", noteHandler.Update)
	noteGroup.DELETE("/:id", noteHandler.Delete)
	noteGroup.POST("/:id/invite", noteHandler.Invite)
	noteGroup.GET("/:id/users", noteHandler.ListCollaborators)
	noteGroup.PUT("/:id/users/:userId", noteHandler.UpdateCollaboratorRole)
	noteGroup.DELETE("/:id/users/:userId", noteHandler.RemoveCollaborator)

	// Invitation routes. Reading and declining are public so recipients can
	// act on the link before creating an account; accepting needs a session.
	invitationGroup := v1.Group("/invitations")
	invitationGroup.GET("/:token", invitationHandler.Get)
	invitationGroup.POST("/:token/accept", invitationHandler.Accept, requireAuth)
	invitationGroup.DELETE("/:token", invitationHandler.Decline)

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks", requireAuth)
	taskGroup.GET("", taskHandler.List)
	taskGroup.POST("/notes/:noteId", taskHandler.Create)
	taskGroup.GET("/notes/:noteId", taskHandler.ListByNote)
	taskGroup.GET("/:id", taskHandler.Get)
	taskGroup.PUT("/:id", taskHandler.Update)
	taskGroup.DELETE("/:id", taskHandler.Delete)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler keeps unhandled errors inside the response envelope.
// Handlers answer domain errors themselves; this catches routing errors,
// echo.HTTPError values and anything that slipped through.
func customErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"
		message := "An unexpected error occurred"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			switch code {
			case http.StatusNotFound:
				errCode = "NOT_FOUND"
				message = "Resource not found"
			case http.StatusMethodNotAllowed:
				errCode = "METHOD_NOT_ALLOWED"
				message = "Method not allowed"
			case http.StatusRequestTimeout, http.StatusServiceUnavailable:
				errCode = "SERVICE_UNAVAILABLE"
				message = "Service temporarily unavailable"
			default:
				if msg, ok := he.Message.(string); ok {
					message = msg
				}
				errCode = strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
			}
		}

		if code == http.StatusInternalServerError {
			log.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			var respErr error
			if c.Request().Method == echo.HEAD {
				respErr = c.NoContent(code)
			} else {
				respErr = c.JSON(code, httpHandlers.Response{
					Success: false,
					Error:   &httpHandlers.ErrorPayload{Code: errCode, Message: message},
				})
			}
			if respErr != nil {
				log.Errorw("Error sending response", "error", respErr)
			}
		}
	}
}
