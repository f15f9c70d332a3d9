package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Transcription
	WhisperLanguage string `env:"WHISPER_LANGUAGE" envDefault:"ru"`

	// Vault & storage
	VaultPath             string `env:"VAULT_PATH" envDefault:"vault"`
	GoogleCredentialsPath string `env:"GOOGLE_CREDENTIALS_PATH" envDefault:"data/google-credentials.json"`
	AllowlistFilePath     string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/allowlist.json"`
	PendingFilePath       string `env:"PENDING_FILE_PATH" envDefault:"data/pending.json"`

	// Scheduling (cron specs, UTC)
	DailyProcessCron string `env:"DAILY_PROCESS_CRON" envDefault:"0 21 * * *"`
	WeeklyDigestCron string `env:"WEEKLY_DIGEST_CRON" envDefault:"0 10 * * 1"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
