// Пакет server — HTTP-сервер serverReport с graceful shutdown.
// Без TLS — TLS termination выполняется на reverse proxy.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Nickto55/serverReport/internal/api/handlers"
	"github.com/Nickto55/serverReport/internal/api/middleware"
	"github.com/Nickto55/serverReport/internal/api/openapi"
	"github.com/Nickto55/serverReport/internal/config"
	"github.com/Nickto55/serverReport/internal/domain/rbac"
)

// PublicPrefixes — пути, доступные без JWT.
var PublicPrefixes = []string{"/health", "/metrics", "/api/openapi.yaml"}

// Server — HTTP-сервер serverReport.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с маршрутами API.
// middlewares — глобальные middleware (metrics, request id, logging, JWT, OpenAPI),
// применяются в порядке переданного среза.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.APIHandler,
	health *handlers.HealthHandler,
	middlewares ...func(http.Handler) http.Handler,
) *Server {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	registerRoutes(router, api, health)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "http_server")),
		cfg:        cfg,
	}
}

func registerRoutes(r chi.Router, api *handlers.APIHandler, health *handlers.HealthHandler) {
	r.Get("/health", health.Health)
	r.Get("/health/live", health.HealthLive)
	r.Get("/health/ready", health.HealthReady)
	r.Get("/metrics", health.GetMetrics)
	r.Method(http.MethodGet, "/api/openapi.yaml", openapi.Handler())

	r.Route("/api/reports", func(r chi.Router) {
		r.Post("/", api.CreateReport)
		r.Get("/", api.ListReports)
		r.Get("/{id}", api.GetReport)
		r.Put("/{id}", api.UpdateReport)
		r.Delete("/{id}", api.DeleteReport)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(rbac.RoleAdmin))
		r.Get("/users", api.AdminListUsers)
		r.Get("/users/{userId}/reports", api.AdminListUserReports)
		r.Get("/reports", api.AdminListReports)
		r.Put("/reports/{id}/status", api.AdminUpdateReportStatus)
		r.Get("/stats", api.AdminStats)
	})

	r.Route("/api/integrations", func(r chi.Router) {
		r.Get("/", api.ListIntegrations)
		r.Post("/link", api.LinkIntegration)
		r.Delete("/{platform}/{externalUserId}", api.UnlinkIntegration)
	})

	r.Get("/api/auth/me", api.GetCurrentUser)
}

// Handler возвращает корневой обработчик сервера.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// JWTAuthWithExclusions оборачивает middleware, пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без middleware.
func JWTAuthWithExclusions(mw func(http.Handler) http.Handler, excludePrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и работает до отмены ctx, затем выполняет graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
