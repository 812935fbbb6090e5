package alert

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const telegramAPI = "https://api.telegram.org"

// Telegram sends alerts through the Telegram bot sendMessage API.
type Telegram struct {
	id      string
	chatID  string
	token   string
	baseURL string
}

func NewTelegram(id, chatID, token string) *Telegram {
	return &Telegram{id: id, chatID: chatID, token: token, baseURL: telegramAPI}
}

func (t *Telegram) ID() string {
	return t.id
}

func (t *Telegram) BuildRequest(ctx context.Context, message string) (*http.Request, error) {
	// MarkdownV2 treats '-' as markup; it has to arrive escaped.
	escaped := strings.ReplaceAll(message, "-", `\-`)

	query := url.Values{}
	query.Set("chat_id", t.chatID)
	query.Set("parse_mode", "MarkdownV2")
	query.Set("text", escaped)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage?%s", t.baseURL, t.token, query.Encode())
	return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
}
