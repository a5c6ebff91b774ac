// Точка входа serverReport — сервис отчётов о проблемах.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт сервисный слой, HTTP API с JWT middleware и ботов Discord/Telegram,
// запускает topologymetrics и работает до SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/Nickto55/serverReport/internal/api/handlers"
	"github.com/Nickto55/serverReport/internal/api/middleware"
	"github.com/Nickto55/serverReport/internal/api/openapi"
	"github.com/Nickto55/serverReport/internal/bot"
	"github.com/Nickto55/serverReport/internal/bot/discord"
	"github.com/Nickto55/serverReport/internal/bot/telegram"
	"github.com/Nickto55/serverReport/internal/config"
	"github.com/Nickto55/serverReport/internal/database"
	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
	"github.com/Nickto55/serverReport/internal/server"
	"github.com/Nickto55/serverReport/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("serverReport запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Bool("discord", cfg.DiscordEnabled()),
		slog.Bool("telegram", cfg.TelegramEnabled()),
	)

	if os.Getenv("SR_DEPHEALTH_GROUP") == "" {
		logger.Warn("SR_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("serverReport завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("serverReport остановлен")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return err
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	userRepo := repository.NewUserRepository(pool)
	reportRepo := repository.NewReportRepository(pool)
	integrationRepo := repository.NewIntegrationRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// 6. Services
	reportSvc := service.NewReportService(reportRepo, statsRepo, logger)
	userSvc := service.NewUserService(userRepo, reportRepo, logger)
	identitySvc := service.NewIdentityService(integrationRepo, cfg.LinkCodeTTL, logger)

	// 7. Readiness checkers (PostgreSQL + IdP)
	pgChecker := database.NewReadinessChecker(pool)
	idpChecker, err := middleware.NewJWKSReadinessChecker(cfg.JWTJWKSURL, cfg.JWKSCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		return err
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, idpChecker)
	apiHandler := handlers.NewAPIHandler(reportSvc, userSvc, identitySvc, logger)

	// 8. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(middleware.JWTAuthOptions{
		JWKSURL:         cfg.JWTJWKSURL,
		CACertPath:      cfg.JWKSCACertPath,
		Issuer:          cfg.JWTIssuer,
		AdminGroups:     cfg.RoleAdminGroups,
		ClientTimeout:   cfg.JWKSClientTimeout,
		RefreshInterval: cfg.JWKSRefreshInterval,
		Leeway:          cfg.JWTLeeway,
	}, userSvc, logger)
	if err != nil {
		return err
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	middlewares := []func(next http.Handler) http.Handler{
		middleware.MetricsMiddleware(),
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		server.JWTAuthWithExclusions(jwtAuth.Middleware(), server.PublicPrefixes...),
	}

	// 8.1 Валидация запросов по OpenAPI контракту (SR_OPENAPI_VALIDATION)
	if cfg.OpenAPIValidation {
		validator, err := openapi.NewValidator(ctx, logger)
		if err != nil {
			return err
		}
		middlewares = append(middlewares, validator.Middleware())
	}

	srv := server.New(cfg, logger, apiHandler, healthHandler, middlewares...)

	// 9. topologymetrics — мониторинг зависимостей
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:      "server-report",
		Group:          cfg.DephealthGroup,
		DB:             pgDB,
		PGConnURL:      cfg.DatabaseURL(),
		JWKSURL:        cfg.JWTJWKSURL,
		MonitorDiscord: cfg.DiscordEnabled(),
		CheckInterval:  cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		dephealthSvc = nil
	}
	if dephealthSvc != nil {
		defer dephealthSvc.Stop()
	}

	// 10. Боты включаются заданием токена
	var runners []func(context.Context) error
	if cfg.DiscordEnabled() {
		core := bot.New(model.PlatformDiscord, cfg.DiscordPrefix, reportSvc, identitySvc, cfg.BotListLimit, logger)
		dc, err := discord.New(cfg.DiscordToken, cfg.DiscordPrefix, core, logger)
		if err != nil {
			return err
		}
		runners = append(runners, dc.Run)
	}
	if cfg.TelegramEnabled() {
		core := bot.New(model.PlatformTelegram, "/", reportSvc, identitySvc, cfg.BotListLimit, logger)
		tg, err := telegram.New(cfg.TelegramToken, cfg.TelegramPollTimeout, core, logger)
		if err != nil {
			return err
		}
		runners = append(runners, tg.Run)
	}
	runners = append(runners, srv.Run)

	// 11. HTTP-сервер и боты работают до первой ошибки или сигнала
	g, gctx := errgroup.WithContext(ctx)
	for _, start := range runners {
		g.Go(func() error {
			return start(gctx)
		})
	}
	return g.Wait()
}
