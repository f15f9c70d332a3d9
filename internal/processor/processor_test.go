package processor

import (
	"context"
	"strings"
	"testing"

	"d-brain/internal/llm"
	"d-brain/internal/session"
)

type fakeLLM struct {
	resp    llm.Response
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	for _, m := range msgs {
		f.prompts = append(f.prompts, m.Content)
	}
	return f.resp, f.err
}

type fakeTasks struct {
	titles []string
	dues   []string
}

func (f *fakeTasks) CreateTask(ctx context.Context, title, notes, dueDate string) error {
	f.titles = append(f.titles, title)
	f.dues = append(f.dues, dueDate)
	return nil
}

type fakeKeep struct{ titles []string }

func (f *fakeKeep) CreateNote(ctx context.Context, title, content string) error {
	f.titles = append(f.titles, title)
	return nil
}

func newTestProcessor(t *testing.T, resp string) (*Processor, *fakeLLM, *fakeTasks, *fakeKeep, *session.Store) {
	t.Helper()
	store, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	fl := &fakeLLM{resp: llm.Response{Content: resp, Model: "test"}}
	ft := &fakeTasks{}
	fk := &fakeKeep{}
	return New(fl, ft, fk, store), fl, ft, fk, store
}

func TestProcessEntry_CreatesTask(t *testing.T) {
	resp := `Вот результат:
{"type":"task","title":"Купить молоко","content":"Купить молоко завтра","due_date":"2026-09-01"}`
	p, _, ft, fk, store := newTestProcessor(t, resp)

	result, err := p.ProcessEntry(context.Background(), "Купить молоко завтра", 42)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Type != "task" || !result.Created {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(ft.titles) != 1 || ft.titles[0] != "Купить молоко" || ft.dues[0] != "2026-09-01" {
		t.Fatalf("task not filed: %+v", ft)
	}
	if len(fk.titles) != 0 {
		t.Fatalf("note unexpectedly filed: %+v", fk)
	}

	// Run bookkeeping lands under the system subject.
	sys, err := store.Today(SystemSubject)
	if err != nil {
		t.Fatalf("system log: %v", err)
	}
	if len(sys) != 1 || sys[0].Kind != "classify" {
		t.Fatalf("missing bookkeeping record: %+v", sys)
	}
}

func TestProcessEntry_CreatesNote(t *testing.T) {
	resp := `{"type":"note","title":"Идея","content":"Записать идею"}`
	p, _, ft, fk, _ := newTestProcessor(t, resp)

	result, err := p.ProcessEntry(context.Background(), "Записать идею", 42)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Type != "note" || !result.Created {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(fk.titles) != 1 || len(ft.titles) != 0 {
		t.Fatalf("wrong store used: tasks=%+v keep=%+v", ft, fk)
	}
}

func TestProcessEntry_UnparseableFallsBackToNote(t *testing.T) {
	p, _, _, fk, _ := newTestProcessor(t, "ничего похожего на JSON")

	result, err := p.ProcessEntry(context.Background(), "какая-то запись", 7)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Type != "note" {
		t.Fatalf("want fallback note, got %+v", result)
	}
	if len(fk.titles) != 1 {
		t.Fatalf("fallback note not filed: %+v", fk)
	}
}

func TestProcessEntry_IncludesSessionContext(t *testing.T) {
	resp := `{"type":"someday","title":"x","content":"x"}`
	p, fl, _, _, store := newTestProcessor(t, resp)

	if err := store.Append(42, "voice", map[string]any{"text": "вчера звонил Марат"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := p.ProcessEntry(context.Background(), "перезвонить", 42); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(fl.prompts) != 1 {
		t.Fatalf("want one prompt, got %d", len(fl.prompts))
	}
	if !strings.Contains(fl.prompts[0], "[voice] вчера звонил Марат") {
		t.Fatalf("session context missing from prompt: %q", fl.prompts[0])
	}
}

func TestProcessToday_BatchCountsByType(t *testing.T) {
	resp := `{"type":"task","title":"t","content":"c"}`
	p, _, ft, _, store := newTestProcessor(t, resp)

	for _, text := range []string{"один", "два"} {
		if err := store.Append(42, "text", map[string]any{"text": text}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// Command entries and system bookkeeping must not be classified.
	if err := store.Append(42, "command", map[string]any{"cmd": "/status"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Append(SystemSubject, "daily_run", nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sum, err := p.ProcessToday(context.Background())
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if sum.Total != 2 || sum.Tasks != 2 || sum.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(ft.titles) != 2 {
		t.Fatalf("tasks filed: %+v", ft)
	}
}

func TestProcessLatest_NoCaptures(t *testing.T) {
	p, _, _, _, store := newTestProcessor(t, `{"type":"note","title":"t","content":"c"}`)
	if err := store.Append(42, "command", map[string]any{"cmd": "/do"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := p.ProcessLatest(context.Background(), 42); err == nil {
		t.Fatalf("expected error when nothing captured")
	}
}

func TestExtractResult(t *testing.T) {
	if _, ok := extractResult("no braces here"); ok {
		t.Fatalf("parsed garbage")
	}
	if _, ok := extractResult(`{"title":"без типа"}`); ok {
		t.Fatalf("accepted verdict without type")
	}
	r, ok := extractResult("префикс {\"type\":\"waiting\",\"title\":\"Жду\"} суффикс")
	if !ok || r.Type != "waiting" || r.Title != "Жду" {
		t.Fatalf("wrapped JSON not extracted: %+v", r)
	}
}
