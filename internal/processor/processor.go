// Package processor classifies captured entries with an LLM and files
// them into the external task/note stores.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"d-brain/internal/llm"
	"d-brain/internal/session"
)

// SystemSubject marks unattended runs in the session log.
const SystemSubject int64 = 0

// Capture kinds the daily run picks up; everything else in the log is
// bookkeeping (commands, system records).
var captureKinds = map[string]bool{
	"text":    true,
	"voice":   true,
	"photo":   true,
	"forward": true,
}

type TaskCreator interface {
	CreateTask(ctx context.Context, title, notes, dueDate string) error
}

type NoteCreator interface {
	CreateNote(ctx context.Context, title, content string) error
}

// Result is the LLM's classification verdict for one entry.
type Result struct {
	Type    string `json:"type"` // task, note, waiting, someday, error
	Title   string `json:"title"`
	Content string `json:"content"`
	DueDate string `json:"due_date,omitempty"`
	Created bool   `json:"created"`
	Status  string `json:"status"`
}

// Summary aggregates one batch run.
type Summary struct {
	Total   int
	Tasks   int
	Notes   int
	Waiting int
	Someday int
	Errors  int
}

type Processor struct {
	llmClient llm.Client
	tasks     TaskCreator
	keep      NoteCreator
	store     *session.Store
}

func New(llmClient llm.Client, tasks TaskCreator, keep NoteCreator, store *session.Store) *Processor {
	return &Processor{
		llmClient: llmClient,
		tasks:     tasks,
		keep:      keep,
		store:     store,
	}
}

// ProcessEntry classifies a single captured text and files it.
func (p *Processor) ProcessEntry(ctx context.Context, text string, subject int64) (Result, error) {
	prompt := p.buildPrompt(text, subject)

	resp, err := p.llmClient.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return Result{Type: "error", Status: fmt.Sprintf("LLM error: %v", err)}, err
	}

	result, ok := extractResult(resp.Content)
	if !ok {
		log.Printf("⚠️ Failed to parse classification response, falling back to note")
		result = Result{
			Type:    "note",
			Title:   truncate(text, 50),
			Content: text,
			Status:  "Не удалось распарсить ответ модели",
		}
	}

	switch result.Type {
	case "task":
		if err := p.tasks.CreateTask(ctx, result.Title, result.Content, result.DueDate); err != nil {
			log.Printf("❌ Failed to create task: %v", err)
			result.Created = false
			result.Status = fmt.Sprintf("Ошибка создания задачи: %v", err)
		} else {
			result.Created = true
			result.Status = "✓ Создана задача"
		}
	case "note":
		if err := p.keep.CreateNote(ctx, result.Title, result.Content); err != nil {
			log.Printf("❌ Failed to create note: %v", err)
			result.Created = false
			result.Status = fmt.Sprintf("Ошибка создания заметки: %v", err)
		} else {
			result.Created = true
			result.Status = "✓ Создана заметка"
		}
	case "waiting", "someday":
		// Stays in the log only; nothing to file externally.
		result.Status = "✓ Отмечено: " + result.Type
	}

	// System bookkeeping record for the run itself.
	if err := p.store.Append(SystemSubject, "classify", map[string]any{
		"subject": subject,
		"result":  result.Type,
		"title":   result.Title,
		"created": result.Created,
	}); err != nil {
		log.Printf("⚠️ Failed to record classification: %v", err)
	}

	return result, nil
}

// ProcessToday classifies every capture recorded today, across all subjects.
func (p *Processor) ProcessToday(ctx context.Context) (Summary, error) {
	subjects, err := p.store.Subjects()
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, subject := range subjects {
		if subject == SystemSubject {
			continue
		}
		entries, err := p.store.Today(subject)
		if err != nil {
			return sum, err
		}
		for _, e := range entries {
			if !captureKinds[e.Kind] {
				continue
			}
			text := strings.TrimSpace(e.Text())
			if text == "" {
				continue
			}
			sum.Total++

			result, err := p.ProcessEntry(ctx, text, subject)
			if err != nil {
				sum.Errors++
				continue
			}
			sum.count(result.Type)
			log.Printf("  ✓ %s: %s", strings.ToUpper(result.Type), result.Status)
		}
	}
	return sum, nil
}

// ProcessLatest classifies the subject's most recent unclassified capture,
// for the on-demand /do flow.
func (p *Processor) ProcessLatest(ctx context.Context, subject int64) (Result, error) {
	entries, err := p.store.Today(subject)
	if err != nil {
		return Result{}, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if captureKinds[e.Kind] && strings.TrimSpace(e.Text()) != "" {
			return p.ProcessEntry(ctx, strings.TrimSpace(e.Text()), subject)
		}
	}
	return Result{}, fmt.Errorf("no captured entries today")
}

func (s *Summary) count(resultType string) {
	switch resultType {
	case "task":
		s.Tasks++
	case "note":
		s.Notes++
	case "waiting":
		s.Waiting++
	case "someday":
		s.Someday++
	case "error":
		s.Errors++
	}
}

func (p *Processor) buildPrompt(text string, subject int64) string {
	today := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`Ты — GTD-ассистент. Обработай эту запись по методологии Getting Things Done.

Контекст:
- Дата: %s
- Язык: русский

%sЗапись для обработки:
"%s"

ВЫПОЛНИ:
1. Проанализируй запись
2. Классифицируй: task (требует действия), note (справка), waiting (ожидание ответа), someday (когда-нибудь)
3. Определи срок выполнения, если он есть
4. Верни строго JSON:

{"type": "task" | "note" | "waiting" | "someday", "title": "Заголовок", "content": "Полное содержание", "due_date": "YYYY-MM-DD" или null}`,
		today, p.sessionContext(subject), text)
}

// sessionContext formats today's last few entries as compact prompt
// context. Kept deliberately small: a handful of lines, each truncated.
func (p *Processor) sessionContext(subject int64) string {
	if subject == SystemSubject {
		return ""
	}
	entries, err := p.store.Today(subject)
	if err != nil || len(entries) == 0 {
		return ""
	}
	if len(entries) > 5 {
		entries = entries[len(entries)-5:]
	}

	var b strings.Builder
	b.WriteString("=== КОНТЕКСТ СЕГОДНЯ ===\n")
	for _, e := range entries {
		text := e.Text()
		if text == "" {
			continue
		}
		kind := e.Kind
		if kind == "" {
			kind = "unknown"
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", e.TS.Format("15:04"), kind, truncate(text, 60))
	}
	b.WriteString("=== КОНЕЦ КОНТЕКСТА ===\n\n")
	return b.String()
}

// extractResult pulls the JSON verdict out of the model response, which
// may wrap it in prose.
func extractResult(content string) (Result, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal([]byte(content[start:end+1]), &r); err != nil {
		return Result{}, false
	}
	if r.Type == "" {
		return Result{}, false
	}
	return r, true
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
