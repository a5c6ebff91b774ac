// Пакет telegram — адаптер чат-бота Telegram (telebot.v3, long polling).
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/Nickto55/serverReport/internal/bot"
	"github.com/Nickto55/serverReport/internal/domain/model"
)

// Bot — Telegram бот.
type Bot struct {
	tb     *tele.Bot
	core   *bot.Core
	logger *slog.Logger

	// ctx — контекст Run, передаётся в обработчики команд.
	ctx context.Context
}

// New создаёт Telegram бота и регистрирует обработчики команд.
// pollTimeout — таймаут long polling (SR_TELEGRAM_POLL_TIMEOUT).
func New(token string, pollTimeout time.Duration, core *bot.Core, logger *slog.Logger) (*Bot, error) {
	b := &Bot{
		core:   core,
		logger: logger.With(slog.String("component", "telegram_bot")),
		ctx:    context.Background(),
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		OnError: func(err error, c tele.Context) {
			attrs := []any{slog.String("error", err.Error())}
			if c != nil && c.Sender() != nil {
				attrs = append(attrs, slog.Int64("telegram_user_id", c.Sender().ID))
			}
			b.logger.Error("Ошибка обработки обновления Telegram", attrs...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание Telegram бота: %w", err)
	}
	b.tb = tb
	b.register(tb)
	return b, nil
}

func (b *Bot) register(tb *tele.Bot) {
	tb.Handle("/"+bot.CommandStart, b.onStart)
	tb.Handle("/"+bot.CommandReport, b.onReport)
	tb.Handle("/"+bot.CommandStatus, b.onStatus)
	tb.Handle("/"+bot.CommandList, b.onList)
	tb.Handle("/"+bot.CommandLink, b.onLink)
	tb.Handle("/"+bot.CommandHelp, b.onHelp)
}

// Run запускает long polling и работает до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.logger.Info("Telegram бот запущен", slog.String("username", b.tb.Me.Username))

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.tb.Start()
	}()

	<-ctx.Done()
	b.tb.Stop()
	<-done
	b.logger.Info("Telegram бот остановлен")
	return nil
}

// callerOf — автор сообщения. Без username используется имя.
func callerOf(c tele.Context) bot.Caller {
	u := c.Sender()
	name := u.Username
	if name == "" {
		name = u.FirstName
	}
	return bot.Caller{ExternalID: strconv.FormatInt(u.ID, 10), Username: name}
}

func (b *Bot) onStart(c tele.Context) error {
	if _, err := b.core.Register(b.ctx, callerOf(c)); err != nil {
		return c.Send(b.core.ErrorReply(bot.CommandStart, err))
	}
	return c.Send(b.core.WelcomeText())
}

func (b *Bot) onReport(c tele.Context) error {
	caller := callerOf(c)
	rep, err := b.core.CreateReport(b.ctx, caller, c.Message().Payload)
	if err != nil {
		return c.Send(b.core.ErrorReply(bot.CommandReport, err))
	}
	b.logger.Info("Отчёт создан через Telegram",
		slog.Int64("report_id", rep.ID),
		slog.String("telegram_user_id", caller.ExternalID),
	)
	return c.Send(b.core.CreatedText(rep))
}

func (b *Bot) onStatus(c tele.Context) error {
	rep, err := b.core.Status(b.ctx, callerOf(c), c.Message().Payload)
	if err != nil {
		return c.Send(b.core.ErrorReply(bot.CommandStatus, err))
	}
	return c.Send(formatStatus(rep), tele.ModeMarkdown)
}

func (b *Bot) onList(c tele.Context) error {
	reports, err := b.core.List(b.ctx, callerOf(c))
	if err != nil {
		return c.Send(b.core.ErrorReply(bot.CommandList, err))
	}
	if len(reports) == 0 {
		return c.Send(b.core.EmptyListText())
	}
	return c.Send(formatList(reports), tele.ModeMarkdown)
}

func (b *Bot) onLink(c tele.Context) error {
	integ, err := b.core.Link(b.ctx, callerOf(c))
	if err != nil {
		return c.Send(b.core.ErrorReply(bot.CommandLink, err))
	}
	return c.Send(b.core.LinkText(integ))
}

func (b *Bot) onHelp(c tele.Context) error {
	b.core.Help()
	return c.Send(b.core.HelpText())
}

// formatStatus — карточка отчёта в Markdown.
func formatStatus(rep *model.Report) string {
	return fmt.Sprintf("*Report Status*\n\n"+
		"*ID:* %d\n"+
		"*Title:* %s\n"+
		"*Status:* %s\n"+
		"*Priority:* %s\n"+
		"*Category:* %s\n"+
		"*Created:* %s",
		rep.ID,
		escapeMarkdown(rep.Title),
		escapeMarkdown(rep.Status),
		rep.Priority,
		escapeMarkdown(bot.CategoryOrNA(rep)),
		bot.FormatCreated(rep),
	)
}

// formatList — последние отчёты в Markdown.
func formatList(reports []*model.Report) string {
	var sb strings.Builder
	sb.WriteString("*Ваши отчёты:*\n\n")
	for _, rep := range reports {
		fmt.Fprintf(&sb, "📋 [%d] %s - *%s*\n", rep.ID, escapeMarkdown(rep.Title), escapeMarkdown(rep.Status))
	}
	return sb.String()
}

// markdownEscaper экранирует служебные символы legacy Markdown Telegram.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
