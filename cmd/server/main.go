package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/costeo/internal/config"
	"github.com/Simplici0/costeo/internal/db"
	"github.com/Simplici0/costeo/internal/logging"
	"github.com/Simplici0/costeo/internal/migrations"
	"github.com/Simplici0/costeo/internal/seed"
	"github.com/Simplici0/costeo/internal/store"
)

type server struct {
	auth   *authService
	store  *store.Store
	logger *zap.Logger
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "costeo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings() {
		logger.Warn("config", zap.String("warning", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, cfg.MigrationsDir, logging.NewPrintfAdapter(logger.Named("goose"))); err != nil {
		return err
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Defaults:      cfg.Defaults,
	})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	st := store.New(database)
	auth, err := newAuthService(st, cfg.SessionSecret, !cfg.IsDev())
	if err != nil {
		return err
	}
	srv := &server{auth: auth, store: st, logger: logger}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpSrv.Addr), zap.String("env", cfg.Env))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/rates", s.handleGetRates)
			r.Put("/rates", s.handlePutRates)
			r.Get("/container", s.handleGetContainerExpenses)
			r.Put("/container", s.handlePutContainerExpenses)
			r.Get("/exchange-rate", s.handleGetExchangeRate)
			r.Put("/exchange-rate", s.handlePutExchangeRate)
			r.Get("/export", s.handleExportSettings)
			r.Post("/import", s.handleImportSettings)
		})

		r.Post("/quote", s.handleQuote)
		r.Get("/pricing/estimate", s.handlePricingEstimate)

		r.Route("/containers", func(r chi.Router) {
			r.Get("/", s.handleListContainers)
			r.Post("/", s.handleCreateContainer)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetContainer)
				r.Delete("/", s.handleDeleteContainer)
				r.Post("/products", s.handleAddProduct)
				r.Post("/products/bulk", s.handleBulkProducts)
				r.Put("/products/{productID}", s.handleUpdateProduct)
				r.Delete("/products/{productID}", s.handleDeleteProduct)
				r.Get("/costs", s.handleContainerCosts)
				r.Get("/costs.xlsx", s.handleContainerCostsWorkbook)
				r.Get("/costs.txt", s.handleContainerCostsText)
				r.Post("/snapshots", s.handleCreateSnapshot)
				r.Get("/snapshots", s.handleListSnapshots)
			})
		})

		r.Get("/snapshots/{id}", s.handleGetSnapshot)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
