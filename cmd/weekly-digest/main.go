// One-shot weekly digest: generates the review and sends it to the
// owner over Telegram.
package main

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
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

	owner := cfg.AdminUserID
	if owner == 0 && len(cfg.AllowedUsers) > 0 {
		owner = cfg.AllowedUsers[0]
	}
	if owner == 0 {
		log.Fatalf("no owner configured (set ADMIN_USER or ALLOWED_USERS)")
	}

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
	report, err := proc.WeeklyDigest(ctx, owner)
	if err != nil {
		log.Fatalf("weekly digest failed: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("failed to create telegram api: %v", err)
	}
	msg := tgbotapi.NewMessage(owner, report)
	msg.ParseMode = cfg.MessageParseMode
	if _, err := api.Send(msg); err != nil {
		// Digest text may trip the parser; retry without formatting.
		msg.ParseMode = ""
		if _, err := api.Send(msg); err != nil {
			log.Fatalf("failed to send digest: %v", err)
		}
	}
	log.Printf("Weekly digest sent to user %d", owner)
}
