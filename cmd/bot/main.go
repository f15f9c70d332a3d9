package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"d-brain/internal/auth"
	"d-brain/internal/config"
	"d-brain/internal/llm"
	"d-brain/internal/organizer"
	"d-brain/internal/pending"
	"d-brain/internal/processor"
	"d-brain/internal/scheduler"
	"d-brain/internal/session"
	"d-brain/internal/telegram"
	"d-brain/internal/transcribe"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	allowRepo, err := auth.NewFileRepository(cfg.AllowlistFilePath)
	if err != nil {
		log.Fatalf("failed to init allowlist repo: %v", err)
	}
	authSvc, err := auth.NewService(allowRepo, cfg.AllowedUsers)
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}

	pendRepo, err := pending.NewRepository(cfg.PendingFilePath)
	if err != nil {
		log.Fatalf("failed to init pending repo: %v", err)
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

	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Options{
		AuthService: authSvc,
		Pending:     pendRepo,
		Store:       store,
		Transcriber: transcribe.NewWhisper(cfg.OpenAIAPIKey, cfg.WhisperLanguage),
		Processor:   proc,
		AdminUserID: cfg.AdminUserID,
		ParseMode:   cfg.MessageParseMode,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	owner := ownerID(cfg)

	sched := scheduler.New()
	if err := sched.Add(scheduler.Job{
		Name: "daily-process",
		Spec: cfg.DailyProcessCron,
		Run: func(ctx context.Context) error {
			sum, err := proc.ProcessToday(ctx)
			if err != nil {
				return err
			}
			if rerr := store.Append(processor.SystemSubject, "daily_run", map[string]any{
				"total":  sum.Total,
				"tasks":  sum.Tasks,
				"notes":  sum.Notes,
				"errors": sum.Errors,
			}); rerr != nil {
				log.Printf("⚠️ Failed to record daily run: %v", rerr)
			}
			if owner != 0 {
				return bot.SendTo(owner, fmt.Sprintf(
					"🌙 Вечерняя обработка: %d записей\n📝 задач: %d, 📌 заметок: %d, ⏳ waiting: %d, 📚 someday: %d, ошибок: %d",
					sum.Total, sum.Tasks, sum.Notes, sum.Waiting, sum.Someday, sum.Errors))
			}
			return nil
		},
	}); err != nil {
		log.Fatalf("failed to schedule daily processing: %v", err)
	}
	if err := sched.Add(scheduler.Job{
		Name: "weekly-digest",
		Spec: cfg.WeeklyDigestCron,
		Run: func(ctx context.Context) error {
			if owner == 0 {
				return fmt.Errorf("no owner configured for weekly digest")
			}
			report, err := proc.WeeklyDigest(ctx, owner)
			if err != nil {
				return err
			}
			return bot.SendTo(owner, report)
		},
	}); err != nil {
		log.Fatalf("failed to schedule weekly digest: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	bot.Start(ctx)
}

// ownerID resolves who receives scheduled reports: the admin, or the
// first allowlisted user for single-owner setups without a separate admin.
func ownerID(cfg *config.Config) int64 {
	if cfg.AdminUserID != 0 {
		return cfg.AdminUserID
	}
	if len(cfg.AllowedUsers) > 0 {
		return cfg.AllowedUsers[0]
	}
	return 0
}
