package notification

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/domain"
)

const createdAtLayout = "02.01.2006 15:04"

// Notifier delivers a placed order to the shop operators. It returns the
// message id on success and nil on any failure; it never fails the order.
type Notifier interface {
	Notify(ctx context.Context, order *domain.Order, profile *domain.Profile) *string
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

type TelegramGateway struct {
	client   *resty.Client
	token    string
	chatID   string
	currency string
	logger   *zap.Logger
}

func NewTelegramGateway(cfg config.TelegramConfig, logger *zap.Logger) *TelegramGateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &TelegramGateway{
		client:   client,
		token:    cfg.BotToken,
		chatID:   cfg.ChatID,
		currency: cfg.Currency,
		logger:   logger,
	}
}

// New returns the Telegram gateway, or a NopNotifier when no bot token is configured.
func New(cfg config.TelegramConfig, logger *zap.Logger) Notifier {
	if cfg.BotToken == "" {
		logger.Info("telegram bot token not configured, order notifications disabled")
		return NopNotifier{}
	}
	return NewTelegramGateway(cfg, logger)
}

func (g *TelegramGateway) Notify(ctx context.Context, order *domain.Order, profile *domain.Profile) *string {
	logger := g.logger.With(zap.Uint("orderId", order.ID))

	var result sendMessageResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:    g.chatID,
			Text:      FormatOrderMessage(order, profile, g.currency),
			ParseMode: "HTML",
		}).
		SetResult(&result).
		Post("/bot" + g.token + "/sendMessage")
	if err != nil {
		logger.Warn("telegram request failed", zap.String("error", g.redact(err.Error())))
		return nil
	}

	if resp.StatusCode() != http.StatusOK {
		logger.Warn("telegram api error", zap.Int("status", resp.StatusCode()), zap.String("body", g.redact(resp.String())))
		return nil
	}
	if !result.OK {
		logger.Warn("telegram rejected message", zap.String("description", result.Description))
		return nil
	}

	id := strconv.FormatInt(result.Result.MessageID, 10)
	logger.Info("order sent to telegram", zap.String("messageId", id))
	return &id
}

func (g *TelegramGateway) redact(s string) string {
	if g.token == "" {
		return s
	}
	return strings.ReplaceAll(s, g.token, "***")
}

// FormatOrderMessage renders the HTML message posted to the operators' chat.
func FormatOrderMessage(order *domain.Order, profile *domain.Profile, currency string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🍓 <b>Новый заказ #%d</b>\n\n", order.ID)
	b.WriteString("👤 <b>Клиент:</b>\n")
	if profile != nil {
		fmt.Fprintf(&b, "Имя: %s\n", html.EscapeString(profile.Name))
		fmt.Fprintf(&b, "Телефон: %s\n", html.EscapeString(profile.Phone))
		fmt.Fprintf(&b, "Адрес: %s\n\n", html.EscapeString(profile.Address))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("🛒 <b>Заказ:</b>\n")
	for _, item := range order.Items {
		name := item.Name
		if name == "" {
			name = "Неизвестный товар"
		}
		fmt.Fprintf(&b, "• %s x%d = %s %s\n", html.EscapeString(name), item.Quantity, item.Total.StringFixed(2), currency)
	}

	fmt.Fprintf(&b, "\n💰 <b>Итого: %s %s</b>\n", order.TotalPrice.StringFixed(2), currency)
	fmt.Fprintf(&b, "\n📅 %s", order.CreatedAt.Format(createdAtLayout))

	return b.String()
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *domain.Order, *domain.Profile) *string {
	return nil
}
