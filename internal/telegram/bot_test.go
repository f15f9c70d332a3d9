package telegram

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"d-brain/internal/auth"
	"d-brain/internal/pending"
	"d-brain/internal/session"
)

type fakeSender struct{ sent []string }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	sw := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sw.Text)
	return tgbotapi.Message{}, nil
}

func newTestBot(t *testing.T, allowed ...int64) (*Bot, *fakeSender, *session.Store) {
	t.Helper()
	store, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	svc, err := auth.NewService(nil, allowed)
	if err != nil {
		t.Fatalf("init auth: %v", err)
	}
	pend, err := pending.NewRepository(filepath.Join(t.TempDir(), "pending.json"))
	if err != nil {
		t.Fatalf("init pending: %v", err)
	}
	fs := &fakeSender{}
	b := &Bot{
		s:           fs,
		authSvc:     svc,
		pending:     pend,
		store:       store,
		adminUserID: 999,
		parseMode:   "HTML",
	}
	return b, fs, store
}

func userMsg(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "user"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
}

func TestUnknownUser_QueuedAndAdminNotified(t *testing.T) {
	b, fs, _ := newTestBot(t, 42)

	b.handleMessage(context.Background(), userMsg(123, "привет"))

	reqs, err := b.pending.List()
	if err != nil || len(reqs) != 1 || reqs[0].UserID != 123 {
		t.Fatalf("request not queued: %+v err=%v", reqs, err)
	}
	if len(fs.sent) != 2 {
		t.Fatalf("want admin notify + user reply, got %+v", fs.sent)
	}
	if !strings.Contains(fs.sent[0], "хочет пользоваться ботом") {
		t.Fatalf("admin notify missing: %+v", fs.sent)
	}
}

func TestTextCapture_AppendsToLogAndConfirms(t *testing.T) {
	b, fs, store := newTestBot(t, 42)

	b.handleMessage(context.Background(), userMsg(42, "Купить молоко"))

	entries, err := store.Today(42)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "text" || entries[0].Text() != "Купить молоко" {
		t.Fatalf("capture not logged: %+v", entries)
	}
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "Сохранено") {
		t.Fatalf("confirmation missing: %+v", fs.sent)
	}
}

func TestTextCapture_AppendFailureSurfacesToUser(t *testing.T) {
	vault := t.TempDir()
	store, err := session.New(vault)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	// Occupy the subject's partition directory slot with a plain file so
	// the append cannot create it.
	if err := os.WriteFile(filepath.Join(vault, "sessions", "42"), nil, 0o644); err != nil {
		t.Fatalf("plant blocker: %v", err)
	}

	svc, _ := auth.NewService(nil, []int64{42})
	fs := &fakeSender{}
	b := &Bot{s: fs, authSvc: svc, store: store, parseMode: "HTML"}

	b.handleMessage(context.Background(), userMsg(42, "пропавшая запись"))

	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "НЕ сохранена") {
		t.Fatalf("append failure not surfaced: %+v", fs.sent)
	}
}

func TestStatusCommand_CountsTodayAndWeek(t *testing.T) {
	b, fs, store := newTestBot(t, 42)
	if err := store.Append(42, "voice", map[string]any{"text": "раз"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Append(42, "text", map[string]any{"text": "два"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	msg := userMsg(42, "/status")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}}
	b.handleMessage(context.Background(), msg)

	if len(fs.sent) != 1 {
		t.Fatalf("want 1 reply, got %+v", fs.sent)
	}
	out := fs.sent[0]
	if !strings.Contains(out, "Всего записей: <b>2</b>") {
		t.Fatalf("today totals wrong: %q", out)
	}
	if !strings.Contains(out, "За 7 дней") || !strings.Contains(out, "voice: 1") {
		t.Fatalf("week stats missing: %q", out)
	}
	// The /status run itself is journaled as a command event.
	entries, _ := store.Today(42)
	last := entries[len(entries)-1]
	if last.Kind != "command" || last.Payload["cmd"] != "/status" {
		t.Fatalf("command not journaled: %+v", last)
	}
}

func TestApproveCallback_AllowsUser(t *testing.T) {
	b, fs, _ := newTestBot(t, 42)
	if _, err := b.pending.Add(pending.Request{UserID: 123, Username: "newbie"}); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	cb := &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 999},
		Data:    "approve:123",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 999}},
	}
	b.handleCallback(context.Background(), cb)

	if !b.authSvc.IsAllowed(123) {
		t.Fatalf("user not allowed after approval")
	}
	if reqs, _ := b.pending.List(); len(reqs) != 0 {
		t.Fatalf("request not dequeued: %+v", reqs)
	}
	if len(fs.sent) != 2 || !strings.Contains(fs.sent[0], "Доступ открыт") {
		t.Fatalf("approval replies wrong: %+v", fs.sent)
	}
}

func TestCallback_IgnoredFromNonAdmin(t *testing.T) {
	b, fs, _ := newTestBot(t, 42)
	cb := &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 123},
		Data:    "approve:123",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 123}},
	}
	b.handleCallback(context.Background(), cb)
	if len(fs.sent) != 0 {
		t.Fatalf("non-admin callback processed: %+v", fs.sent)
	}
}
