// One-shot batch classification of today's captures, for running from
// external cron/systemd instead of the bot's built-in scheduler.
package main

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"d-brain/internal/config"
	"d-brain/internal/llm"
	"d-brain/internal/organizer"
	"d-brain/internal/processor"
	"d-brain/internal/session"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	log.Println(strings.Repeat("=", 60))
	log.Println("Starting daily processing")

	store, err := session.New(cfg.VaultPath)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}

	factory := llm.NewFactory(cfg)
	llmClient, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	tasksSvc, err := organizer.NewTasks(ctx, cfg.GoogleCredentialsPath)
	if err != nil {
		log.Fatalf("failed to init google tasks: %v", err)
	}
	keepSvc, err := organizer.NewKeep(ctx, cfg.GoogleCredentialsPath)
	if err != nil {
		log.Fatalf("failed to init google keep: %v", err)
	}

	proc := processor.New(llmClient, tasksSvc, keepSvc, store)
	sum, err := proc.ProcessToday(ctx)
	if err != nil {
		log.Fatalf("daily processing failed: %v", err)
	}

	if err := store.Append(processor.SystemSubject, "daily_run", map[string]any{
		"total":  sum.Total,
		"tasks":  sum.Tasks,
		"notes":  sum.Notes,
		"errors": sum.Errors,
	}); err != nil {
		log.Printf("⚠️ Failed to record daily run: %v", err)
	}

	log.Println("Processing summary:")
	log.Printf("  Total entries: %d", sum.Total)
	log.Printf("  Tasks created: %d", sum.Tasks)
	log.Printf("  Notes created: %d", sum.Notes)
	log.Printf("  Waiting items: %d", sum.Waiting)
	log.Printf("  Someday items: %d", sum.Someday)
	log.Printf("  Errors: %d", sum.Errors)
	log.Println(strings.Repeat("=", 60))
}
