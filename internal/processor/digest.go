package processor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"d-brain/internal/llm"
)

// WeeklyDigest summarises the last week of captures into a report
// suitable for sending to the owner.
func (p *Processor) WeeklyDigest(ctx context.Context, subject int64) (string, error) {
	stats, err := p.store.Stats(subject, 7)
	if err != nil {
		return "", fmt.Errorf("weekly stats: %w", err)
	}
	entries, err := p.store.Recent(subject, 50)
	if err != nil {
		return "", fmt.Errorf("weekly entries: %w", err)
	}

	var b strings.Builder
	b.WriteString("Ты — GTD-ассистент. Составь недельный обзор (Weekly Review) по записям пользователя.\n\n")
	if len(stats) > 0 {
		b.WriteString("Статистика за 7 дней:\n")
		kinds := make([]string, 0, len(stats))
		for k := range stats {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, "- %s: %d\n", k, stats[k])
		}
		b.WriteString("\n")
	}
	b.WriteString("Записи за неделю:\n")
	for _, e := range entries {
		text := e.Text()
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", e.TS.Format("Mon 15:04"), e.Kind, truncate(text, 80))
	}
	b.WriteString("\nСоставь краткий обзор недели и выдели 3 главные цели на следующую. Отвечай на русском, без JSON.")

	resp, err := p.llmClient.Generate(ctx, []llm.Message{{Role: "user", Content: b.String()}})
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}

	if err := p.store.Append(SystemSubject, "weekly_digest", map[string]any{
		"subject": subject,
		"entries": len(entries),
	}); err != nil {
		log.Printf("⚠️ Failed to record digest run: %v", err)
	}
	return resp.Content, nil
}
