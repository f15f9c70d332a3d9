package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"d-brain/internal/auth"
	"d-brain/internal/pending"
)

var captureKinds = map[string]bool{
	"voice":   true,
	"text":    true,
	"photo":   true,
	"forward": true,
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.authSvc.IsAllowed(msg.From.ID) {
		b.handleUnknownUser(msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if b.handleButton(ctx, msg) {
		return
	}
	switch {
	case msg.Voice != nil:
		b.handleVoice(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(msg)
	case isForward(msg):
		b.handleForward(msg)
	case msg.Text != "":
		b.handleText(msg)
	}
}

func (b *Bot) handleUnknownUser(msg *tgbotapi.Message) {
	log.Printf("Unauthorized access attempt by user ID: %d, username: @%s", msg.From.ID, msg.From.UserName)
	if b.pending != nil {
		added, err := b.pending.Add(pending.Request{
			UserID:    msg.From.ID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
		})
		if err != nil {
			log.Printf("failed to queue access request: %v", err)
		}
		if added && b.adminUserID != 0 {
			text := fmt.Sprintf("Пользователь %d (@%s) хочет пользоваться ботом", msg.From.ID, msg.From.UserName)
			out := tgbotapi.NewMessage(b.adminUserID, text)
			out.ReplyMarkup = approvalKeyboard(msg.From.ID)
			if _, err := b.s.Send(out); err != nil {
				log.Printf("failed to notify admin: %v", err)
			}
		}
	}
	b.sendMessage(msg.Chat.ID, "Запрос на доступ отправлен на проверку")
}

// capture appends one event to the session log and tells the user when
// the write failed, so a lost note never goes unnoticed.
func (b *Bot) capture(chatID, subject int64, kind string, payload map[string]any) bool {
	if err := b.store.Append(subject, kind, payload); err != nil {
		log.Printf("❌ session append failed: %v", err)
		b.sendMessage(chatID, "❌ Запись НЕ сохранена, попробуйте ещё раз")
		return false
	}
	return true
}

func (b *Bot) handleText(msg *tgbotapi.Message) {
	if !b.capture(msg.Chat.ID, msg.From.ID, "text", map[string]any{
		"text":       msg.Text,
		"message_id": msg.MessageID,
	}) {
		return
	}
	b.sendWithKeyboard(msg.Chat.ID, "💾 Сохранено в Inbox", mainKeyboard())
}

func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	audio, err := b.downloadFile(msg.Voice.FileID)
	if err != nil {
		log.Printf("failed to download voice: %v", err)
		b.sendMessage(msg.Chat.ID, "❌ Не удалось скачать голосовое")
		return
	}

	transcript, err := b.transcriber.Transcribe(ctx, audio, "voice.ogg")
	if err != nil {
		log.Printf("transcription failed: %v", err)
		b.sendMessage(msg.Chat.ID, "❌ Не удалось распознать голосовое")
		return
	}

	if !b.capture(msg.Chat.ID, msg.From.ID, "voice", map[string]any{
		"text":       transcript,
		"duration":   msg.Voice.Duration,
		"message_id": msg.MessageID,
	}) {
		return
	}
	b.sendMessage(msg.Chat.ID, "🎤 Распознано и сохранено:\n\n"+transcript)
}

func (b *Bot) handlePhoto(msg *tgbotapi.Message) {
	// Telegram sends several sizes; the last is the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	payload := map[string]any{
		"file_id":    photo.FileID,
		"message_id": msg.MessageID,
	}
	if msg.Caption != "" {
		payload["text"] = msg.Caption
	}
	if !b.capture(msg.Chat.ID, msg.From.ID, "photo", payload) {
		return
	}
	b.sendMessage(msg.Chat.ID, "📷 Фото сохранено")
}

func (b *Bot) handleForward(msg *tgbotapi.Message) {
	payload := map[string]any{
		"text":       msg.Text,
		"message_id": msg.MessageID,
	}
	if from := forwardOrigin(msg); from != "" {
		payload["forward_from"] = from
	}
	if !b.capture(msg.Chat.ID, msg.From.ID, "forward", payload) {
		return
	}
	b.sendMessage(msg.Chat.ID, "↩️ Пересланное сообщение сохранено")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	// Commands are part of the journal too.
	b.capture(msg.Chat.ID, msg.From.ID, "command", map[string]any{"cmd": "/" + msg.Command()})

	switch msg.Command() {
	case "start":
		b.sendWithKeyboard(msg.Chat.ID, startText, mainKeyboard())
	case "help":
		b.sendWithKeyboard(msg.Chat.ID, helpText, mainKeyboard())
	case "status":
		b.cmdStatus(msg)
	case "do":
		b.cmdDo(ctx, msg)
	case "weekly":
		b.cmdWeekly(ctx, msg)
	case "stats":
		b.cmdGlobalStats(msg)
	default:
		b.sendMessage(msg.Chat.ID, "Неизвестная команда, см. /help")
	}
}

func (b *Bot) handleButton(ctx context.Context, msg *tgbotapi.Message) bool {
	switch msg.Text {
	case btnInbox:
		b.cmdStatus(msg)
	case btnNext:
		b.sendMessage(msg.Chat.ID, "✅ Задачи живут в Google Tasks, список «Second Brain»")
	case btnWaiting:
		b.sendMessage(msg.Chat.ID, "⏳ Записи с типом waiting остаются в журнале до следующего обзора")
	case btnGoals:
		b.sendMessage(msg.Chat.ID, "🎯 Цели формируются в недельном обзоре — /weekly")
	case btnWeekReview:
		b.cmdWeekly(ctx, msg)
	case btnSettings:
		b.sendMessage(msg.Chat.ID, "⚙️ Настройки задаются переменными окружения бота")
	case btnHelp:
		b.sendWithKeyboard(msg.Chat.ID, helpText, mainKeyboard())
	default:
		return false
	}
	return true
}

func (b *Bot) cmdStatus(msg *tgbotapi.Message) {
	today, err := b.store.Today(msg.From.ID)
	if err != nil {
		log.Printf("status: today read failed: %v", err)
		b.sendMessage(msg.Chat.ID, "❌ Не удалось прочитать журнал")
		return
	}

	// Count captures only; the journal also holds command/bookkeeping
	// events that are not "записи" from the user's point of view.
	counts := map[string]int{}
	total := 0
	for _, e := range today {
		if captureKinds[e.Kind] {
			counts[e.Kind]++
			total++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>%s</b>\n\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&sb, "Всего записей: <b>%d</b>\n", total)
	fmt.Fprintf(&sb, "- 🎤 Голосовых: %d\n", counts["voice"])
	fmt.Fprintf(&sb, "- 💬 Текстовых: %d\n", counts["text"])
	fmt.Fprintf(&sb, "- 📷 Фото: %d\n", counts["photo"])
	fmt.Fprintf(&sb, "- ↩️ Пересланных: %d", counts["forward"])

	if week, err := b.store.Stats(msg.From.ID, 7); err == nil && len(week) > 0 {
		sb.WriteString("\n\n<b>За 7 дней:</b>")
		kinds := make([]string, 0, len(week))
		for k := range week {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&sb, "\n• %s: %d", k, week[k])
		}
	}

	b.sendWithKeyboard(msg.Chat.ID, sb.String(), mainKeyboard())
}

func (b *Bot) cmdDo(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, "🔄 Обрабатываю последнюю запись...")
	result, err := b.proc.ProcessLatest(ctx, msg.From.ID)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "❌ Нечего обрабатывать: нет записей за сегодня")
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("%s\n\n<b>%s</b>\n%s", result.Status, result.Title, result.Content))
}

func (b *Bot) cmdWeekly(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, "🔄 Составляю недельный обзор...")
	report, err := b.proc.WeeklyDigest(ctx, msg.From.ID)
	if err != nil {
		log.Printf("weekly digest failed: %v", err)
		b.sendMessage(msg.Chat.ID, "❌ Не удалось составить обзор")
		return
	}
	b.sendMessage(msg.Chat.ID, report)
}

func (b *Bot) cmdGlobalStats(msg *tgbotapi.Message) {
	if msg.From.ID != b.adminUserID {
		b.sendMessage(msg.Chat.ID, "Команда доступна только администратору")
		return
	}
	g, err := b.store.Global()
	if err != nil {
		log.Printf("global stats failed: %v", err)
		b.sendMessage(msg.Chat.ID, "❌ Не удалось собрать статистику")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Журнал целиком</b>\n\nВсего записей: %d\n", g.Total)
	if g.EarliestDate != "" {
		fmt.Fprintf(&sb, "Период: %s — %s\n", g.EarliestDate, g.LatestDate)
	}
	if len(g.ByKind) > 0 {
		sb.WriteString("\nПо типам:")
		kinds := make([]string, 0, len(g.ByKind))
		for k := range g.ByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&sb, "\n• %s: %d", k, g.ByKind[k])
		}
	}
	b.sendMessage(msg.Chat.ID, sb.String())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.From.ID != b.adminUserID {
		return
	}

	action, idStr, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}

	req, found, err := b.pending.Take(userID)
	if err != nil || !found {
		log.Printf("access request for %d not found (err=%v)", userID, err)
		b.sendMessage(cb.Message.Chat.ID, "Запрос уже обработан")
		return
	}

	switch action {
	case "approve":
		if err := b.authSvc.Allow(auth.User{ID: req.UserID, Username: req.Username, FirstName: req.FirstName}); err != nil {
			log.Printf("failed to allow user %d: %v", req.UserID, err)
			b.sendMessage(cb.Message.Chat.ID, "❌ Не удалось сохранить allowlist")
			return
		}
		b.sendMessage(cb.Message.Chat.ID, fmt.Sprintf("✅ Доступ открыт: %d (@%s)", req.UserID, req.Username))
		b.sendMessage(req.UserID, "✅ Доступ открыт, можно отправлять записи")
	case "deny":
		b.sendMessage(cb.Message.Chat.ID, fmt.Sprintf("❌ Доступ отклонён: %d (@%s)", req.UserID, req.Username))
	}
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	resp, err := http.Get(file.Link(b.api.Token))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	return data, nil
}

func isForward(msg *tgbotapi.Message) bool {
	return msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardSenderName != ""
}

func forwardOrigin(msg *tgbotapi.Message) string {
	switch {
	case msg.ForwardFrom != nil:
		if msg.ForwardFrom.UserName != "" {
			return "@" + msg.ForwardFrom.UserName
		}
		return msg.ForwardFrom.FirstName
	case msg.ForwardFromChat != nil:
		return msg.ForwardFromChat.Title
	default:
		return msg.ForwardSenderName
	}
}

const startText = `<b>🧠 Второй мозг</b> — персональный помощник

<b>Как это работает:</b>

1️⃣ <b>Capture:</b> отправляй голосовые, текст, фото
🎤 Голосовые — автоматически распознаю
💬 Текст — сохраню как есть
📷 Фото — заархивирую

2️⃣ <b>Organize:</b> кнопки ниже для навигации

3️⃣ <b>Process:</b> вечером записи обрабатываются автоматически`

const helpText = `<b>📖 Справка</b>

<b>Workflow:</b>
1. Отправь голосовое или текст → сохраняется в Inbox
2. Вечером система классифицирует записи
3. Задачи попадают в Google Tasks, заметки — в Google Keep

<b>Типы записей:</b>
📝 <b>task</b> — задача с действием
📌 <b>note</b> — информация/идея
⏳ <b>waiting</b> — жду ответа
📚 <b>someday</b> — интересно, но не срочно

<b>Команды:</b>
/status — записи за сегодня и статистика
/do — обработать последнюю запись
/weekly — недельный обзор`
