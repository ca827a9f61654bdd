package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/masrulmollah/DataAnalysis/internal/ai"
	"github.com/masrulmollah/DataAnalysis/internal/ai/factory"
	"github.com/masrulmollah/DataAnalysis/internal/api"
	"github.com/masrulmollah/DataAnalysis/internal/config"
	"github.com/masrulmollah/DataAnalysis/internal/extract"
	"github.com/masrulmollah/DataAnalysis/internal/logger"
	"github.com/masrulmollah/DataAnalysis/internal/session"
	"github.com/masrulmollah/DataAnalysis/internal/upload"
	"github.com/masrulmollah/DataAnalysis/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load YAML configuration (auto-created on first run, env overrides applied)
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	defer log.Sync()

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	// Initialize format registry and the remote AI provider
	registry := extract.NewRegistry()

	provider, err := factory.NewProvider(cfg.AI)
	if err != nil {
		log.Fatal("failed to initialize AI provider",
			zap.String("provider", cfg.AI.Provider),
			zap.Error(err))
	}

	// Initialize session manager
	sessionMgr := session.NewManager(registry, ai.NewAnalyzer(provider), ai.NewChat(provider), log, cfg.Session.MaxSessions)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(cfg.Session.CleanupInterval())
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(cfg.Session.MaxAge())
		}
	}()

	// Initialize chunked upload manager
	uploadMgr := upload.NewManager(cfg.Upload.MaxFileSize(), cfg.Upload.ChunkTTL(), log)

	handlers := api.NewHandlers(&api.Dependencies{
		Sessions: sessionMgr,
		Uploads:  uploadMgr,
		Registry: registry,
		Log:      log,
		Version:  Version,
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewCustomValidator()
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/health" ||
				strings.HasPrefix(path, "/ws/") ||
				strings.Contains(path, "/chunks/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/ws/") ||
				strings.Contains(path, "/upload") ||
				strings.HasPrefix(path, "/api/uploads")
		},
		ErrorMessage: "Request timeout - the operation took too long",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/ws/")
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if embeddedMode {
		// In embedded mode, use config settings
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	} else {
		// Development mode - only allow localhost dev servers
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{
				"http://localhost:5173", "http://127.0.0.1:5173",
				"http://localhost:3000", "http://127.0.0.1:3000",
			},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// API Routes
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warn("failed to register static routes", zap.Error(err))
		} else {
			log.Info("serving embedded frontend from binary")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "Development"
	if embeddedMode {
		mode = "Embedded"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Data Analysis Dashboard Server                  ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Provider:  %-46s║\n", cfg.AI.Provider)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	// Start the server and shut down cleanly on SIGINT/SIGTERM
	go func() {
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
