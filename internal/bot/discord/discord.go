// Пакет discord — адаптер чат-бота Discord (discordgo).
// Команды с префиксом (по умолчанию "!") в каналах и личных сообщениях.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/Nickto55/serverReport/internal/bot"
	"github.com/Nickto55/serverReport/internal/domain/model"
)

// statusEmbedColor — цвет embed с карточкой отчёта.
const statusEmbedColor = 0x0099ff

// messenger — отправка сообщений; реализуется *discordgo.Session.
type messenger interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot — Discord бот.
type Bot struct {
	session *discordgo.Session
	core    *bot.Core
	prefix  string
	logger  *slog.Logger

	// ctx — контекст Run, передаётся в обработчики событий discordgo.
	ctx context.Context
}

// New создаёт Discord бота. Подключение к шлюзу выполняется в Run.
func New(token, prefix string, core *bot.Core, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("создание сессии Discord: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		core:    core,
		prefix:  prefix,
		logger:  logger.With(slog.String("component", "discord_bot")),
		ctx:     context.Background(),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

// Run подключается к Discord и работает до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("подключение к Discord: %w", err)
	}
	b.logger.Info("Discord бот запущен", slog.String("prefix", b.prefix))

	<-ctx.Done()

	if err := b.session.Close(); err != nil {
		b.logger.Warn("Ошибка закрытия сессии Discord", slog.String("error", err.Error()))
	}
	b.logger.Info("Discord бот остановлен")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("Discord бот авторизован",
		slog.String("user", r.User.Username),
		slog.Int("guilds", len(r.Guilds)),
	)
	if err := s.UpdateWatchStatus(0, "reports"); err != nil {
		b.logger.Warn("Не удалось установить статус бота", slog.String("error", err.Error()))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handle(b.ctx, s, m.Message)
}

// parseCommand выделяет имя команды и аргументы. ok=false — сообщение не команда.
func parseCommand(content, prefix string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(content, prefix))
	if rest == "" {
		return "", "", false
	}
	name = rest
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i:]
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// handle выполняет команду из сообщения. Сообщения ботов игнорируются.
func (b *Bot) handle(ctx context.Context, out messenger, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	name, args, ok := parseCommand(m.Content, b.prefix)
	if !ok {
		return
	}

	caller := bot.Caller{ExternalID: m.Author.ID, Username: m.Author.Username}
	logger := b.logger.With(
		slog.String("command", name),
		slog.String("discord_user_id", caller.ExternalID),
	)

	switch name {
	case bot.CommandStart:
		if _, err := b.core.Register(ctx, caller); err != nil {
			b.reply(out, m, b.core.ErrorReply(name, err))
			return
		}
		b.reply(out, m, b.core.WelcomeText())

	case bot.CommandReport:
		rep, err := b.core.CreateReport(ctx, caller, args)
		if err != nil {
			b.reply(out, m, b.core.ErrorReply(name, err))
			return
		}
		logger.Info("Отчёт создан через Discord", slog.Int64("report_id", rep.ID))
		b.reply(out, m, b.core.CreatedText(rep))

	case bot.CommandStatus:
		rep, err := b.core.Status(ctx, caller, args)
		if err != nil {
			b.reply(out, m, b.core.ErrorReply(name, err))
			return
		}
		b.replyEmbed(out, m, statusEmbed(rep))

	case bot.CommandList:
		reports, err := b.core.List(ctx, caller)
		if err != nil {
			b.reply(out, m, b.core.ErrorReply(name, err))
			return
		}
		b.reply(out, m, b.formatList(reports))

	case bot.CommandLink:
		integ, err := b.core.Link(ctx, caller)
		if err != nil {
			b.reply(out, m, b.core.ErrorReply(name, err))
			return
		}
		b.reply(out, m, b.core.LinkText(integ))

	case bot.CommandHelp:
		b.core.Help()
		b.reply(out, m, b.core.HelpText())

	default:
		logger.Debug("Неизвестная команда")
	}
}

func (b *Bot) reply(out messenger, m *discordgo.Message, text string) {
	if _, err := out.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		b.logger.Error("Ошибка отправки сообщения Discord",
			slog.String("channel_id", m.ChannelID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) replyEmbed(out messenger, m *discordgo.Message, embed *discordgo.MessageEmbed) {
	_, err := out.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{embed},
		Reference: m.Reference(),
	})
	if err != nil {
		b.logger.Error("Ошибка отправки embed Discord",
			slog.String("channel_id", m.ChannelID),
			slog.String("error", err.Error()),
		)
	}
}

// statusEmbed — карточка отчёта.
func statusEmbed(rep *model.Report) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("#%d %s", rep.ID, rep.Title),
		Description: rep.Description,
		Color:       statusEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: rep.Status, Inline: true},
			{Name: "Priority", Value: rep.Priority, Inline: true},
			{Name: "Category", Value: bot.CategoryOrNA(rep), Inline: true},
			{Name: "Created", Value: bot.FormatCreated(rep), Inline: false},
		},
	}
}

func (b *Bot) formatList(reports []*model.Report) string {
	if len(reports) == 0 {
		return b.core.EmptyListText()
	}
	var sb strings.Builder
	sb.WriteString("**Ваши отчёты:**\n\n")
	for _, rep := range reports {
		fmt.Fprintf(&sb, "📋 [%d] %s - **%s**\n", rep.ID, rep.Title, rep.Status)
	}
	return sb.String()
}
