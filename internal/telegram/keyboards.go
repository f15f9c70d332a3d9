package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnInbox      = "📥 Inbox"
	btnNext       = "✅ Next Actions"
	btnWaiting    = "⏳ Waiting"
	btnGoals      = "🎯 Goals"
	btnWeekReview = "📅 Week Review"
	btnSettings   = "⚙️ Settings"
	btnHelp       = "❓ Help"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnInbox),
			tgbotapi.NewKeyboardButton(btnNext),
			tgbotapi.NewKeyboardButton(btnWaiting),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnGoals),
			tgbotapi.NewKeyboardButton(btnWeekReview),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSettings),
			tgbotapi.NewKeyboardButton(btnHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func approvalKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Разрешить", fmt.Sprintf("approve:%d", userID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("deny:%d", userID)),
		),
	)
}
