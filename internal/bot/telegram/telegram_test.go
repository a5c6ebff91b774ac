package telegram

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/Nickto55/serverReport/internal/bot"
	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeContext реализует только используемые обработчиками методы tele.Context.
type fakeContext struct {
	tele.Context
	sender  *tele.User
	message *tele.Message
	sent    []string
	opts    [][]interface{}
}

func (f *fakeContext) Sender() *tele.User      { return f.sender }
func (f *fakeContext) Message() *tele.Message { return f.message }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, what.(string))
	f.opts = append(f.opts, opts)
	return nil
}

func newContext(userID int64, username, payload string) *fakeContext {
	return &fakeContext{
		sender:  &tele.User{ID: userID, Username: username, FirstName: "Алиса"},
		message: &tele.Message{Payload: payload},
	}
}

// stubReports — хранилище отчётов в памяти.
type stubReports struct {
	created []service.CreateReportInput
	reports []*model.Report
	limit   int
}

func (s *stubReports) Create(_ context.Context, in service.CreateReportInput) (*model.Report, error) {
	s.created = append(s.created, in)
	return &model.Report{ID: 9, UserID: in.UserID, Title: in.Title, Priority: model.PriorityMedium, Status: model.StatusOpen}, nil
}

func (s *stubReports) Get(_ context.Context, id int64, userID string) (*model.Report, error) {
	for _, rep := range s.reports {
		if rep.ID == id && rep.UserID == userID {
			return rep, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *stubReports) ListByUser(_ context.Context, _ string, limit int) ([]*model.Report, error) {
	s.limit = limit
	return s.reports, nil
}

// stubIdentity — зарегистрированные ID хранятся в registered, привязан только 1001.
type stubIdentity struct {
	registered map[string]string
}

func (s *stubIdentity) EnsureLinked(_ context.Context, platform, externalID, externalUsername string) (*model.Integration, error) {
	if s.registered == nil {
		s.registered = map[string]string{}
	}
	s.registered[externalID] = externalUsername
	return &model.Integration{Platform: platform, ExternalUserID: externalID}, nil
}

func (s *stubIdentity) ResolveUser(_ context.Context, _, externalID string) (string, error) {
	if externalID == "1001" {
		return "u-1", nil
	}
	if _, ok := s.registered[externalID]; ok {
		return "", service.ErrNotLinked
	}
	return "", service.ErrIntegrationNotFound
}

func (s *stubIdentity) IssueLinkCode(_ context.Context, platform, externalID, _ string) (*model.Integration, error) {
	code := "ZXCV7788"
	exp := time.Now().Add(time.Hour)
	return &model.Integration{Platform: platform, ExternalUserID: externalID, LinkCode: &code, LinkCodeExpiresAt: &exp}, nil
}

func newTestBot(reports *stubReports, identity *stubIdentity) *Bot {
	core := bot.New(model.PlatformTelegram, "/", reports, identity, 10, testLogger())
	return &Bot{core: core, logger: testLogger(), ctx: context.Background()}
}

func TestOnStart(t *testing.T) {
	identity := &stubIdentity{}
	b := newTestBot(&stubReports{}, identity)

	c := newContext(2002, "", "")
	if err := b.onStart(c); err != nil {
		t.Fatalf("onStart ошибка: %v", err)
	}
	if identity.registered["2002"] != "Алиса" {
		t.Errorf("registered = %v, ожидается имя вместо пустого username", identity.registered)
	}
	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "Добро пожаловать") {
		t.Errorf("ответ = %v", c.sent)
	}
}

func TestOnReport(t *testing.T) {
	reports := &stubReports{}
	b := newTestBot(reports, &stubIdentity{})

	c := newContext(1001, "alice", "Сервер упал | Не отвечает с утра")
	if err := b.onReport(c); err != nil {
		t.Fatalf("onReport ошибка: %v", err)
	}
	if len(reports.created) != 1 || *reports.created[0].Source != model.SourceTelegram {
		t.Fatalf("created = %+v", reports.created)
	}
	if !strings.Contains(c.sent[0], "#9") {
		t.Errorf("ответ = %v", c.sent)
	}
}

func TestOnList(t *testing.T) {
	tests := []struct {
		name      string
		userID    int64
		start     bool
		reports   []*model.Report
		wantReply string
	}{
		{"не зарегистрирован", 3003, false, nil, "/start"},
		{"не привязан", 3003, true, nil, "/link"},
		{"нет отчётов", 1001, false, nil, "У вас нет отчётов."},
		{"список", 1001, false, []*model.Report{{ID: 1, UserID: "u-1", Title: "Диск_заполнен", Status: model.StatusOpen}}, "Диск\\_заполнен"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := &stubReports{reports: tt.reports}
			b := newTestBot(reports, &stubIdentity{})
			if tt.start {
				_ = b.onStart(newContext(tt.userID, "bob", ""))
			}

			c := newContext(tt.userID, "bob", "")
			if err := b.onList(c); err != nil {
				t.Fatalf("onList ошибка: %v", err)
			}
			if len(c.sent) != 1 || !strings.Contains(c.sent[0], tt.wantReply) {
				t.Errorf("ответ = %v, ожидается содержащий %q", c.sent, tt.wantReply)
			}
			if len(tt.reports) > 0 && reports.limit != 10 {
				t.Errorf("limit = %d, ожидается 10", reports.limit)
			}
		})
	}
}

func TestOnStatus_Markdown(t *testing.T) {
	cat := "infra"
	reports := &stubReports{reports: []*model.Report{
		{ID: 4, UserID: "u-1", Title: "Сервер *упал*", Status: model.StatusResolved, Priority: model.PriorityLow, Category: &cat, CreatedAt: time.Now()},
	}}
	b := newTestBot(reports, &stubIdentity{})

	c := newContext(1001, "alice", "4")
	if err := b.onStatus(c); err != nil {
		t.Fatalf("onStatus ошибка: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("ответов: %d", len(c.sent))
	}
	for _, want := range []string{"*Status:* resolved", "*Priority:* low", "*Category:* infra", "Сервер \\*упал\\*"} {
		if !strings.Contains(c.sent[0], want) {
			t.Errorf("карточка не содержит %q: %s", want, c.sent[0])
		}
	}
	if len(c.opts[0]) != 1 || c.opts[0][0] != tele.ModeMarkdown {
		t.Errorf("opts = %v, ожидается ModeMarkdown", c.opts[0])
	}

	c = newContext(1001, "alice", "")
	_ = b.onStatus(c)
	if !strings.Contains(c.sent[0], "/status <номер>") {
		t.Errorf("ответ без номера = %q", c.sent[0])
	}
}

func TestOnLinkAndHelp(t *testing.T) {
	b := newTestBot(&stubReports{}, &stubIdentity{})

	c := newContext(3003, "carol", "")
	_ = b.onLink(c)
	if !strings.Contains(c.sent[0], "ZXCV7788") {
		t.Errorf("ответ /link = %q", c.sent[0])
	}

	c = newContext(3003, "carol", "")
	_ = b.onHelp(c)
	if !strings.Contains(c.sent[0], "/report") || !strings.Contains(c.sent[0], "/link") {
		t.Errorf("ответ /help = %q", c.sent[0])
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a_b*c`d[e"); got != "a\\_b\\*c\\`d\\[e" {
		t.Errorf("escapeMarkdown = %q", got)
	}
}
