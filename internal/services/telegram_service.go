package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
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

// FormatPrice formats an amount in Chilean pesos with thousand separators.
func FormatPrice(amount int64) string {
	str := fmt.Sprintf("%d", amount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(".")
		}
		result.WriteRune(digit)
	}

	return "$" + result.String() + " CLP"
}

// PaymentSuccessNotification contains payment success data.
type PaymentSuccessNotification struct {
	BuyOrder   string
	OutingID   string
	Amount     int64
	Activities int
	Coupon     string
}

// NotifyPaymentSuccess sends notification about a successful outing payment.
func (s *TelegramService) NotifyPaymentSuccess(payment PaymentSuccessNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	coupon := payment.Coupon
	if coupon == "" {
		coupon = "—"
	}

	message := fmt.Sprintf(`<b>✅ PAGO RECIBIDO</b>
<b>📋 Orden:</b> %s
<b>🎡 Salida:</b> %s
<b>🎟 Actividades:</b> %d
<b>🏷 Cupón:</b> %s
<b>💰 Monto:</b> %s
━━━━━━━━━━━━━━━━━━`,
		payment.BuyOrder,
		payment.OutingID,
		payment.Activities,
		coupon,
		FormatPrice(payment.Amount),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// OutingNotification contains data about a newly planned outing.
type OutingNotification struct {
	Title      string
	UserName   string
	Activities int
	PlannedFor string
}

// NotifyNewOuting sends notification about a newly planned outing.
func (s *TelegramService) NotifyNewOuting(outing OutingNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>🗓 NUEVA SALIDA PLANIFICADA</b>
<b>📋 Título:</b> %s
<b>👤 Usuario:</b> %s
<b>🎟 Actividades:</b> %d
<b>📅 Fecha:</b> %s
━━━━━━━━━━━━━━━━━━`,
		outing.Title,
		outing.UserName,
		outing.Activities,
		outing.PlannedFor,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
