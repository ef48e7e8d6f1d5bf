package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TelegramNotifier шлёт алерт оператору в фиксированный чат.
// Best-effort: ни retry, ни подтверждения доставки.
type TelegramNotifier struct {
	baseURL        string
	token          string
	operatorChatID string
	client         *http.Client
	log            zerolog.Logger
}

func NewTelegramNotifier(log zerolog.Logger) *TelegramNotifier {
	token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	operatorChatID := strings.TrimSpace(os.Getenv("OPERATOR_CHAT_ID"))
	if token == "" || operatorChatID == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN / OPERATOR_CHAT_ID not set, operator alerts disabled")
	}

	return NewTelegramNotifierWith(
		"https://api.telegram.org",
		token,
		operatorChatID,
		&http.Client{Timeout: 10 * time.Second},
		log,
	)
}

// NewTelegramNotifierWith — для тестов
func NewTelegramNotifierWith(baseURL, token, operatorChatID string, client *http.Client, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:        baseURL,
		token:          token,
		operatorChatID: operatorChatID,
		client:         client,
		log:            log.With().Str("svc", "telegram").Logger(),
	}
}

func (t *TelegramNotifier) NotifyHotLead(ctx context.Context, chatID int64, lastMessage, replyText, username string) error {
	if t.token == "" || t.operatorChatID == "" {
		return errors.New("telegram: operator channel is not configured")
	}

	userLink := "Не указан (скрыт)"
	if username != "" {
		userLink = "@" + html.EscapeString(username)
	}

	alert := fmt.Sprintf(
		"🚨 <b>HOT ЛИД! СРОЧНО ПЕРЕХВАТ!</b> 🚨\n\n"+
			"<b>ID Лида:</b> <code>%d</code>\n"+
			"<b>Username:</b> %s\n"+
			"<b>Последний запрос:</b> <i>%s</i>\n"+
			"<b>Ответ AI:</b> %s",
		chatID,
		userLink,
		html.EscapeString(lastMessage),
		html.EscapeString(replyText),
	)

	body, err := json.Marshal(map[string]any{
		"chat_id":    t.operatorChatID,
		"text":       alert,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := t.baseURL + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram api error: %s body=%s", resp.Status, respBody)
	}

	return nil
}
