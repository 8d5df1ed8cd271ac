// Package server is the CruiseMate reference backend: JWT token issuance
// with refresh rotation, role registration, and the per-role API surface
// the CLI talks to.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cruisemate/cruisemate/internal/accounts"
	"github.com/cruisemate/cruisemate/internal/assert"
	"github.com/cruisemate/cruisemate/internal/auth"
	"github.com/cruisemate/cruisemate/internal/config"
	"github.com/cruisemate/cruisemate/internal/metrics"
	"github.com/cruisemate/cruisemate/internal/models"
	"github.com/cruisemate/cruisemate/internal/seed"
	"github.com/cruisemate/cruisemate/internal/workers"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	issuer    *auth.Issuer
	accounts  *accounts.Service
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	cleaner   *workers.TokenCleaner
	version   string
	now       func() time.Time

	loginLimiters sync.Map // client IP -> *rate.Limiter
}

// New creates a new server instance on an open database
func New(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger, version string) (*Server, error) {
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret, err := resolveJWTSecret(db, cfg.Auth.JWTSecret, zlog)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	validate, err := newValidator()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validate,
		issuer:    issuer,
		accounts:  accounts.NewService(db, zlog),
		registry:  registry,
		metrics:   metrics.New(registry),
		cleaner:   workers.NewTokenCleaner(db, zlog),
		version:   version,
		now:       time.Now,
	}

	if cfg.Seed.File != "" {
		if err := server.applySeed(context.Background(), cfg.Seed.File); err != nil {
			return nil, err
		}
	}

	server.setupRouter()

	return server, nil
}

// newValidator builds the request validator with the date and price rules
func newValidator() (*validator.Validate, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	if err := validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("failed to register isodate validation: %w", err)
	}

	if err := validate.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		return field.CanFloat() && models.PriceProblem(field.Float()) == ""
	}); err != nil {
		return nil, fmt.Errorf("failed to register price validation: %w", err)
	}

	return validate, nil
}

// jsonFieldName reports validation errors under the request's JSON keys
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// resolveJWTSecret prefers the configured secret. Without one, a secret is
// generated on first start and kept in the config row so tokens survive restarts.
func resolveJWTSecret(db *gorm.DB, configured string, zlog zerolog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	var cfg models.Config
	err := db.First(&cfg).Error
	if err == nil {
		assert.NotEmpty("jwt secret", cfg.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return cfg.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)
	assert.Length(secret, 64)

	if err := db.Create(&models.Config{JWTSecret: secret}).Error; err != nil {
		return "", fmt.Errorf("failed to save JWT secret: %w", err)
	}
	zlog.Info().Msg("Generated new JWT secret")
	return secret, nil
}

func (s *Server) applySeed(ctx context.Context, path string) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, s.db, s.accounts, f, s.logger)
	return err
}

// OpenDatabase opens the SQLite database with production settings
func OpenDatabase(url string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8     // Reduced for SQLite efficiency
		maxIdleConns      = 4     // Reduced proportionally
		connMaxLifetime   = 300   // 5 minutes
		busyTimeout       = 5000  // 5 seconds
		cacheSize         = 10000 // 10MB
		walAutocheckpoint = 1000  // WAL auto-checkpoint pages
	)

	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	if origins := s.config.Server.CORSAllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")

	// Public endpoints
	api.POST("/token/", s.rateLimitMiddleware(), s.obtainToken)
	api.POST("/token/refresh/", s.refreshToken)
	api.POST("/contact/", s.createContactMessage)
	for _, slug := range []string{models.RoleVoyager, models.RoleAdmin, models.RoleManager, models.RoleHeadCook, models.RoleSupervisor} {
		api.POST("/"+slug+"/register/", s.register(slug))
	}

	authed := api.Group("")
	authed.Use(JWTAuthMiddleware(s.issuer, s.db, s.logger))

	voyager := authed.Group("/voyager")
	voyager.Use(RequireRoles(s.logger, models.RoleVoyager, models.RoleHeadCook))
	{
		voyager.GET("/", s.voyagerHome)
		voyager.GET("/catering/", s.listMenu(models.CategoryCatering))
		voyager.POST("/catering/", s.orderFromMenu(models.CategoryCatering))
		voyager.GET("/stationery/", s.listMenu(models.CategoryStationery))
		voyager.POST("/stationery/", s.orderFromMenu(models.CategoryStationery))
		voyager.GET("/bookings/", s.listOwnBookings)
		voyager.POST("/bookings/", s.createBooking)
		voyager.PUT("/bookings/:id/", s.updateBooking)
		voyager.DELETE("/bookings/:id/", s.deleteBooking)
	}

	admin := authed.Group("/admin")
	admin.Use(RequireRoles(s.logger, models.RoleAdmin))
	{
		admin.GET("/items/", s.listItems)
		admin.POST("/items/", s.createItem)
		admin.GET("/items/:id/", s.getItem)
		admin.PUT("/items/:id/", s.updateItem)
		admin.DELETE("/items/:id/", s.deleteItem)
	}

	manager := authed.Group("/manager")
	manager.Use(RequireRoles(s.logger, models.RoleManager))
	{
		manager.GET("/bookings/", s.listAllBookings)
	}

	headCook := authed.Group("/head_cook")
	headCook.Use(RequireRoles(s.logger, models.RoleHeadCook))
	{
		headCook.GET("/", s.headCookHome)
		headCook.GET("/orders/", s.listOrders(models.CategoryCatering))
	}

	supervisor := authed.Group("/supervisor")
	supervisor.Use(RequireRoles(s.logger, models.RoleSupervisor))
	{
		supervisor.GET("/orders/", s.listOrders(models.CategoryStationery))
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.Requests.WithLabelValues(c.Request.Method, route, fmt.Sprint(status)).Inc()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": s.now().UTC(),
		"service":   "cruisemate-api",
		"version":   s.version,
	})
}

// Handler returns the router for embedding in tests or another server
func (s *Server) Handler() http.Handler {
	return s.router
}

// setClock replaces the time source for tokens and refresh records
func (s *Server) setClock(now func() time.Time) {
	s.now = now
	s.issuer.SetClock(now)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	port := ":" + s.config.Server.Port

	scheduler, err := workers.StartTokenCleanup(s.config.Cleanup.Schedule, s.cleaner)
	if err != nil {
		return err
	}
	if _, err := scheduler.AddFunc(s.config.Cleanup.Schedule, func() { s.sweepLoginLimiters() }); err != nil {
		<-scheduler.Stop().Done()
		return fmt.Errorf("failed to schedule limiter sweep: %w", err)
	}

	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("port", port).Str("version", s.version).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errCh:
		s.logger.Error().Err(err).Msg("HTTP server error")
		<-scheduler.Stop().Done()
		return err
	}

	<-scheduler.Stop().Done()
	s.logger.Info().Msg("Token cleanup stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		s.logger.Info().Msg("Closing database connection...")
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		} else {
			s.logger.Info().Msg("Database closed successfully")
		}
	}

	return nil
}
