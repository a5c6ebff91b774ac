// Пакет bot — общее ядро команд чат-ботов (Discord, Telegram).
// Разбор аргументов, вызов сервисов и перевод ошибок в ответы пользователю.
// Адаптеры платформ отвечают только за транспорт и оформление сообщений.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/service"
)

// Команды ботов. Используются в справке и как значение лейбла command метрики.
const (
	CommandStart  = "start"
	CommandReport = "report"
	CommandStatus = "status"
	CommandList   = "list"
	CommandLink   = "link"
	CommandHelp   = "help"
)

// ReportService — операции над отчётами, доступные ботам.
type ReportService interface {
	Create(ctx context.Context, in service.CreateReportInput) (*model.Report, error)
	Get(ctx context.Context, id int64, userID string) (*model.Report, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error)
}

// IdentityService — связывание учётной записи платформы с пользователем website.
type IdentityService interface {
	EnsureLinked(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, error)
	ResolveUser(ctx context.Context, platform, externalID string) (string, error)
	IssueLinkCode(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, error)
}

// Caller — автор команды на платформе.
type Caller struct {
	ExternalID string
	Username   string
}

// UsageError — команда вызвана с неверными аргументами.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "неверные аргументы команды: " + e.Usage
}

// Core — ядро команд для одной платформы.
type Core struct {
	platform  string
	prefix    string
	reports   ReportService
	identity  IdentityService
	listLimit int
	logger    *slog.Logger
}

// New создаёт ядро команд.
// prefix — префикс команд платформы ("/" в Telegram, настраиваемый в Discord).
// listLimit — сколько последних отчётов показывает команда list.
func New(
	platform, prefix string,
	reports ReportService,
	identity IdentityService,
	listLimit int,
	logger *slog.Logger,
) *Core {
	return &Core{
		platform:  platform,
		prefix:    prefix,
		reports:   reports,
		identity:  identity,
		listLimit: listLimit,
		logger: logger.With(
			slog.String("component", "bot"),
			slog.String("platform", platform),
		),
	}
}

// Cmd возвращает команду с префиксом платформы, например "!status".
func (c *Core) Cmd(name string) string {
	return c.prefix + name
}

// Register создаёт запись интеграции при первом обращении.
func (c *Core) Register(ctx context.Context, caller Caller) (*model.Integration, error) {
	integ, err := c.identity.EnsureLinked(ctx, c.platform, caller.ExternalID, caller.Username)
	c.observe(CommandStart, err)
	return integ, err
}

// CreateReport разбирает "title | description [| category] [| priority]" и создаёт отчёт
// от имени привязанного пользователя website.
func (c *Core) CreateReport(ctx context.Context, caller Caller, args string) (*model.Report, error) {
	rep, err := c.createReport(ctx, caller, args)
	c.observe(CommandReport, err)
	return rep, err
}

func (c *Core) createReport(ctx context.Context, caller Caller, args string) (*model.Report, error) {
	// Регистрация идёт первой: даже без аргументов автор получает запись интеграции.
	if _, err := c.identity.EnsureLinked(ctx, c.platform, caller.ExternalID, caller.Username); err != nil {
		return nil, err
	}

	parsed, err := ParseReportArgs(args)
	if err != nil {
		return nil, &UsageError{Usage: c.ReportUsage()}
	}
	userID, err := c.identity.ResolveUser(ctx, c.platform, caller.ExternalID)
	if err != nil {
		return nil, err
	}

	source := c.platform
	return c.reports.Create(ctx, service.CreateReportInput{
		UserID:      userID,
		Title:       parsed.Title,
		Description: parsed.Description,
		Category:    parsed.Category,
		Priority:    parsed.Priority,
		Source:      &source,
	})
}

// Status возвращает отчёт привязанного пользователя по id из аргументов.
func (c *Core) Status(ctx context.Context, caller Caller, args string) (*model.Report, error) {
	rep, err := c.status(ctx, caller, args)
	c.observe(CommandStatus, err)
	return rep, err
}

func (c *Core) status(ctx context.Context, caller Caller, args string) (*model.Report, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil, &UsageError{Usage: c.StatusUsage()}
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil || id < 1 {
		return nil, &UsageError{Usage: c.StatusUsage()}
	}

	userID, err := c.identity.ResolveUser(ctx, c.platform, caller.ExternalID)
	if err != nil {
		return nil, err
	}
	return c.reports.Get(ctx, id, userID)
}

// List возвращает последние отчёты привязанного пользователя.
func (c *Core) List(ctx context.Context, caller Caller) ([]*model.Report, error) {
	reports, err := c.list(ctx, caller)
	c.observe(CommandList, err)
	return reports, err
}

func (c *Core) list(ctx context.Context, caller Caller) ([]*model.Report, error) {
	userID, err := c.identity.ResolveUser(ctx, c.platform, caller.ExternalID)
	if err != nil {
		return nil, err
	}
	return c.reports.ListByUser(ctx, userID, c.listLimit)
}

// Link выдаёт одноразовый код привязки учётной записи к пользователю website.
func (c *Core) Link(ctx context.Context, caller Caller) (*model.Integration, error) {
	integ, err := c.identity.IssueLinkCode(ctx, c.platform, caller.ExternalID, caller.Username)
	c.observe(CommandLink, err)
	return integ, err
}

// Help фиксирует вызов справки в метрике.
func (c *Core) Help() {
	c.observe(CommandHelp, nil)
}

// ErrorReply переводит ошибку команды в ответ пользователю.
// Ошибки хранилища логируются, пользователь получает общее сообщение.
func (c *Core) ErrorReply(command string, err error) string {
	var usageErr *UsageError
	switch {
	case errors.As(err, &usageErr):
		return usageErr.Usage
	case errors.Is(err, service.ErrIntegrationNotFound):
		return fmt.Sprintf("Вы не зарегистрированы. Сначала выполните %s.", c.Cmd(CommandStart))
	case errors.Is(err, service.ErrNotLinked):
		return fmt.Sprintf("Аккаунт %s ещё не привязан к профилю на сайте. Получите код командой %s.",
			platformTitle(c.platform), c.Cmd(CommandLink))
	case errors.Is(err, service.ErrNotFound):
		return "Отчёт не найден."
	case errors.Is(err, service.ErrValidation):
		return validationText(err)
	default:
		c.logger.Error("Ошибка выполнения команды",
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
		return failedText(command)
	}
}

// --- Тексты ---

// WelcomeText — приветствие после регистрации.
func (c *Core) WelcomeText() string {
	return "Добро пожаловать в ServerReport Bot! 📋\n\nКоманды:\n" + c.commandList()
}

// HelpText — справка по командам.
func (c *Core) HelpText() string {
	return "Справка ServerReport Bot 📖\n\n" + c.commandList() +
		"\n" + c.ReportUsage()
}

// ReportUsage — подсказка по формату команды report.
func (c *Core) ReportUsage() string {
	return fmt.Sprintf("📝 Формат: %s <заголовок> | <описание> [| категория] [| приоритет]\n"+
		"Заголовок не короче %d символов, описание не короче %d. Приоритет: %s.",
		c.Cmd(CommandReport), model.MinTitleLength, model.MinDescriptionLength,
		strings.Join(model.Priorities, ", "))
}

// StatusUsage — подсказка по формату команды status.
func (c *Core) StatusUsage() string {
	return fmt.Sprintf("Укажите номер отчёта. Формат: %s <номер>", c.Cmd(CommandStatus))
}

// CreatedText — подтверждение создания отчёта.
func (c *Core) CreatedText(rep *model.Report) string {
	return fmt.Sprintf("✅ Отчёт #%d создан (приоритет: %s, статус: %s). Проверить: %s %d",
		rep.ID, rep.Priority, rep.Status, c.Cmd(CommandStatus), rep.ID)
}

// LinkText — код привязки и инструкция.
func (c *Core) LinkText(integ *model.Integration) string {
	if integ.LinkCode == nil || integ.LinkCodeExpiresAt == nil {
		return failedText(CommandLink)
	}
	return fmt.Sprintf("🔗 Код привязки: %s\nВведите его на сайте (Интеграции → Привязать аккаунт) до %s.",
		*integ.LinkCode, integ.LinkCodeExpiresAt.UTC().Format(time.RFC1123))
}

// EmptyListText — у пользователя нет отчётов.
func (c *Core) EmptyListText() string {
	return "У вас нет отчётов."
}

// CategoryOrNA — категория или "N/A".
func CategoryOrNA(rep *model.Report) string {
	if rep.Category == nil || *rep.Category == "" {
		return "N/A"
	}
	return *rep.Category
}

// FormatCreated — время создания отчёта для ответа бота.
func FormatCreated(rep *model.Report) string {
	return rep.CreatedAt.UTC().Format("2006-01-02 15:04 MST")
}

func (c *Core) commandList() string {
	return fmt.Sprintf("📝 %s - создать отчёт\n"+
		"📊 %s <номер> - статус отчёта\n"+
		"📚 %s - ваши отчёты\n"+
		"🔗 %s - привязать аккаунт к профилю на сайте\n"+
		"❓ %s - справка\n",
		c.Cmd(CommandReport), c.Cmd(CommandStatus), c.Cmd(CommandList), c.Cmd(CommandLink), c.Cmd(CommandHelp))
}

func failedText(command string) string {
	switch command {
	case CommandReport:
		return "Не удалось создать отчёт."
	case CommandStatus:
		return "Не удалось получить статус отчёта."
	case CommandList:
		return "Не удалось получить список отчётов."
	case CommandLink:
		return "Не удалось выдать код привязки."
	default:
		return "Произошла ошибка. Попробуйте ещё раз."
	}
}

// validationText убирает технический префикс сентинела из сообщения.
func validationText(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	return "⚠️ " + msg
}

func platformTitle(platform string) string {
	switch platform {
	case model.PlatformDiscord:
		return "Discord"
	case model.PlatformTelegram:
		return "Telegram"
	}
	return platform
}
