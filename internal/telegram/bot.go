// Package telegram is the capture front end: every inbound message or
// command is recorded in the session log before anything else happens.
package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"d-brain/internal/auth"
	"d-brain/internal/pending"
	"d-brain/internal/processor"
	"d-brain/internal/session"
	"d-brain/internal/transcribe"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	authSvc     *auth.Service
	pending     *pending.Repository
	store       *session.Store
	transcriber transcribe.Transcriber
	proc        *processor.Processor
	adminUserID int64
	parseMode   string
}

type Options struct {
	AuthService *auth.Service
	Pending     *pending.Repository
	Store       *session.Store
	Transcriber transcribe.Transcriber
	Processor   *processor.Processor
	AdminUserID int64
	ParseMode   string
}

func New(botToken string, o Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:         api,
		s:           botAPISender{api: api},
		authSvc:     o.AuthService,
		pending:     o.Pending,
		store:       o.Store,
		transcriber: o.Transcriber,
		proc:        o.Processor,
		adminUserID: o.AdminUserID,
		parseMode:   o.ParseMode,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("🤖 Bot started as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
				continue
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
		}
	}
}

// SendTo delivers a plain message to a user, used by scheduled jobs.
func (b *Bot) SendTo(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = b.parseMode
	_, err := b.s.Send(msg)
	return err
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = b.parseMode
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = b.parseMode
	msg.ReplyMarkup = kb
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
