package notify

import (
	"fmt"
	"log"

	"blockfix/backend/internal/localization"
	"blockfix/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAlerter pushes urgent-complaint alerts to the admin team's chat.
type TelegramAlerter struct {
	Bot       *tgbotapi.BotAPI
	ChatID    int64
	Localizer *localization.Localizer
}

// NewTelegramAlerter connects the bot. Returns an error if the token is
// rejected by the Telegram API.
func NewTelegramAlerter(token string, chatID int64, loc *localization.Localizer) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("Telegram alerter authorized as %s", bot.Self.UserName)
	return &TelegramAlerter{Bot: bot, ChatID: chatID, Localizer: loc}, nil
}

// UrgentComplaint alerts the admin chat about an urgent complaint. Harassment
// cases arrive here because they bypass the voting gate.
func (t *TelegramAlerter) UrgentComplaint(complaint *models.Complaint) {
	header := t.Localizer.GetString("en", "alert.urgent")
	text := fmt.Sprintf("⚠️ *%s*\n%s\nCategory: %s\nLocation: %s",
		header, complaint.Title, complaint.Category, complaint.Location)

	msg := tgbotapi.NewMessage(t.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.Bot.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send telegram alert for complaint %s: %v", complaint.ID, err)
	}
}
