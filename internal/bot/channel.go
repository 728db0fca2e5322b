package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrMeowMurk/ToDoBot/internal/dialog"
)

// Channel adapts the Telegram API to the outbound contract the dialog engine
// and the notifier speak. For private chats the chat id equals the user's
// Telegram id, so one address serves both.
type Channel struct {
	api *tgbotapi.BotAPI
}

func NewChannel(api *tgbotapi.BotAPI) *Channel {
	return &Channel{api: api}
}

func (c *Channel) SendMessage(userID int64, text string) error {
	_, err := c.api.Send(tgbotapi.NewMessage(userID, text))
	return err
}

// SendSelectableList renders items as one inline button per row; the token
// travels back as callback data.
func (c *Channel) SendSelectableList(userID int64, prompt string, items []dialog.ListItem) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items))
	for _, item := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(item.Label, item.Token),
		))
	}

	msg := tgbotapi.NewMessage(userID, prompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := c.api.Send(msg)
	return err
}

func (c *Channel) SendDocument(userID int64, name string, payload []byte) error {
	doc := tgbotapi.NewDocument(userID, tgbotapi.FileBytes{Name: name, Bytes: payload})
	_, err := c.api.Send(doc)
	return err
}
