package application

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/plate-calculator/internal/api"
	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/config"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
	"github.com/eugenenazirov/plate-calculator/web"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage    *storage.MemoryStorage
	calculator calculator.Calculator
	handler    *api.Handler
	router     http.Handler
	logger     *zap.Logger
	server     *http.Server
	addr       net.Addr
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("history limit must be positive, got %d", cfg.HistoryLimit)
	}

	store := storage.NewMemoryStorage(
		storage.WithLimit(cfg.HistoryLimit),
		storage.WithMaxSessions(cfg.MaxSessions),
	)
	calc := calculator.New()
	handler := api.NewHandler(calc, store, api.WithHandlerLogger(logger))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler, err := BuildRootHandler(apiRouter)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		storage:    store,
		calculator: calc,
		handler:    handler,
		router:     apiRouter,
		logger:     logger,
		server:     NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler serves the embedded static assets and routes everything
// else (the form page and the JSON API) to appHandler.
func BuildRootHandler(appHandler http.Handler) (http.Handler, error) {
	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("open embedded static assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.Handle("/", appHandler)

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start binds the listening socket and serves HTTP in a goroutine. Bind
// failures are returned; later serve failures are logged.
func (a *App) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	a.addr = ln.Addr()
	a.logger.Info("server listening", zap.String("addr", a.addr.String()))

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (a *App) Addr() net.Addr {
	return a.addr
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
