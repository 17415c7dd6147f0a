package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

// TelegramService notifies the admin chat about settled and cancelled
// orders. Optional: when unconfigured every call is a logged no-op, and
// failures never propagate to the order mutation.
type TelegramService struct {
	botToken    string
	adminChatID string
	currency    string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID, currency string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		currency:    currency,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// NotifyOrderCompleted reports a completed order to the admin chat.
func (s *TelegramService) NotifyOrderCompleted(order *models.Order) {
	if s.adminChatID == "" {
		return
	}

	paid := "unpaid"
	if order.IsPaid {
		paid = "paid"
	}

	message := fmt.Sprintf(`<b>ORDER COMPLETED</b>
<b>Order:</b> %s (%s)
<b>Subtotal:</b> %s
<b>Discount:</b> %s
<b>Total:</b> %s
<b>Payment:</b> %s`,
		order.OrderNumber,
		order.OrderType,
		utils.FormatMinor(order.Subtotal, s.currency),
		utils.FormatMinor(order.DiscountAmount, s.currency),
		utils.FormatMinor(order.Total, s.currency),
		paid,
	)

	if err := s.SendToAdmin(strings.TrimSpace(message)); err != nil {
		log.Printf("[Telegram] completion notice for %s failed: %v", order.OrderNumber, err)
	}
}

// NotifyOrderCancelled reports a cancelled order to the admin chat.
func (s *TelegramService) NotifyOrderCancelled(order *models.Order) {
	if s.adminChatID == "" {
		return
	}

	message := fmt.Sprintf(`<b>ORDER CANCELLED</b>
<b>Order:</b> %s (%s)
<b>Total:</b> %s
<b>Reason:</b> %s`,
		order.OrderNumber,
		order.OrderType,
		utils.FormatMinor(order.Total, s.currency),
		order.CancelReason,
	)

	if err := s.SendToAdmin(strings.TrimSpace(message)); err != nil {
		log.Printf("[Telegram] cancellation notice for %s failed: %v", order.OrderNumber, err)
	}
}
