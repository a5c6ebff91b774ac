// Пакет config — загрузка и валидация конфигурации serverReport
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации serverReport.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (website backend)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Валидация запросов по OpenAPI-контракту
	OpenAPIValidation bool

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальный размер пула соединений
	DBMaxConns int

	// --- JWT (токены выдаёт внешний OIDC-провайдер) ---

	// URL JWKS endpoint
	JWTJWKSURL string
	// Ожидаемый issuer (пусто — не проверяется)
	JWTIssuer string
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Интервал фонового обновления JWKS
	JWKSRefreshInterval time.Duration
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Путь к CA-сертификату для JWKS (опционально)
	JWKSCACertPath string
	// Группы IdP, дающие роль admin
	RoleAdminGroups []string

	// --- Боты ---

	// Токен Discord-бота (пусто — бот не запускается)
	DiscordToken string
	// Префикс команд Discord
	DiscordPrefix string
	// Токен Telegram-бота (пусто — бот не запускается)
	TelegramToken string
	// Таймаут long polling Telegram
	TelegramPollTimeout time.Duration
	// Количество отчётов в ответе на /list
	BotListLimit int
	// Время жизни кода привязки аккаунта
	LinkCodeTTL time.Duration

	// --- Мониторинг зависимостей ---

	// Группа topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера и ботов
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SR_PORT — порт HTTP-сервера (по умолчанию 3000)
	cfg.Port, err = getEnvInt("SR_PORT", 3000)
	if err != nil {
		return nil, fmt.Errorf("SR_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SR_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SR_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("SR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SR_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration("SR_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("SR_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("SR_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_HTTP_IDLE_TIMEOUT: %w", err)
	}

	cfg.OpenAPIValidation, err = getEnvBool("SR_OPENAPI_VALIDATION", true)
	if err != nil {
		return nil, fmt.Errorf("SR_OPENAPI_VALIDATION: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("SR_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("SR_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SR_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("SR_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("SR_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("SR_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("SR_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SR_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// SR_DB_MAX_CONNS — размер пула pgxpool (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("SR_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("SR_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 500 {
		return nil, fmt.Errorf("SR_DB_MAX_CONNS: значение %d вне допустимого диапазона 1-500", cfg.DBMaxConns)
	}

	// --- JWT ---

	// SR_JWT_JWKS_URL — обязательный: без него website API не может проверить токены
	cfg.JWTJWKSURL, err = getEnvRequired("SR_JWT_JWKS_URL")
	if err != nil {
		return nil, err
	}
	cfg.JWTIssuer = getEnvDefault("SR_JWT_ISSUER", "")

	cfg.JWTLeeway, err = getEnvDuration("SR_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_JWT_LEEWAY: %w", err)
	}
	cfg.JWKSRefreshInterval, err = getEnvDuration("SR_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SR_JWKS_REFRESH_INTERVAL: %w", err)
	}
	cfg.JWKSClientTimeout, err = getEnvDuration("SR_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_JWKS_CLIENT_TIMEOUT: %w", err)
	}
	cfg.JWKSCACertPath = getEnvDefault("SR_JWKS_CA_CERT_PATH", "")

	cfg.RoleAdminGroups = parseCSV(getEnvDefault("SR_ROLE_ADMIN_GROUPS", "serverreport-admins"))

	// --- Боты ---

	cfg.DiscordToken = getEnvDefault("SR_DISCORD_TOKEN", "")
	cfg.DiscordPrefix = getEnvDefault("SR_DISCORD_PREFIX", "!")
	if strings.ContainsAny(cfg.DiscordPrefix, " \t\n") {
		return nil, fmt.Errorf("SR_DISCORD_PREFIX: префикс не должен содержать пробелов: %q", cfg.DiscordPrefix)
	}

	cfg.TelegramToken = getEnvDefault("SR_TELEGRAM_TOKEN", "")
	cfg.TelegramPollTimeout, err = getEnvDuration("SR_TELEGRAM_POLL_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_TELEGRAM_POLL_TIMEOUT: %w", err)
	}

	cfg.BotListLimit, err = getEnvInt("SR_BOT_LIST_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("SR_BOT_LIST_LIMIT: %w", err)
	}
	if cfg.BotListLimit < 1 || cfg.BotListLimit > 50 {
		return nil, fmt.Errorf("SR_BOT_LIST_LIMIT: значение %d вне допустимого диапазона 1-50", cfg.BotListLimit)
	}

	cfg.LinkCodeTTL, err = getEnvDuration("SR_LINK_CODE_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SR_LINK_CODE_TTL: %w", err)
	}
	if cfg.LinkCodeTTL < time.Minute {
		return nil, fmt.Errorf("SR_LINK_CODE_TTL: значение %s меньше минимума 1m", cfg.LinkCodeTTL)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("SR_DEPHEALTH_GROUP", "serverreport")
	cfg.DephealthCheckInterval, err = getEnvDuration("SR_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("SR_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL для pgxpool.
// Строковые значения экранируются: пароль может содержать пробелы и кавычки.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		dsnQuote(c.DBHost), c.DBPort, dsnQuote(c.DBName), dsnQuote(c.DBUser),
		dsnQuote(c.DBPassword), dsnQuote(c.DBSSLMode), c.DBMaxConns,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля — для лейблов метрик dephealth.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// dsnQuote заключает значение keyword/value DSN в одинарные кавычки.
func dsnQuote(v string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// DiscordEnabled — задан ли токен Discord-бота.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}

// TelegramEnabled — задан ли токен Telegram-бота.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
