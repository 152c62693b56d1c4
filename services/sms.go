package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/config"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// HTTPSMSSender talks to a bulk SMS gateway that takes its parameters in the
// query string and answers with a small JSON status document.
type HTTPSMSSender struct {
	Username string
	Password string
	SenderID string
	APIURL   string
	Client   *http.Client
	logger   *zap.Logger
}

// SMSResponse represents the gateway response
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
}

// NewSMSSender returns nil when no gateway is configured.
func NewSMSSender(cfg *config.Config, logger *zap.Logger) SMSSender {
	if cfg.SMSAPIURL == "" {
		logger.Warn("SMS_API_URL not set, SMS delivery disabled")
		return nil
	}
	return &HTTPSMSSender{
		Username: cfg.SMSUsername,
		Password: cfg.SMSPassword,
		SenderID: cfg.SMSSenderID,
		APIURL:   cfg.SMSAPIURL,
		Client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (s *HTTPSMSSender) SendSMS(ctx context.Context, phone, message string) error {
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phone)
	params.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "CarRental-Notifier/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// Some gateway routes answer with plain text on success.
		text := strings.ToLower(strings.TrimSpace(string(body)))
		if strings.Contains(text, "success") || strings.Contains(text, "sent") {
			return nil
		}
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if smsResp.Status == "success" || smsResp.Status == "sent" {
		if s.logger != nil {
			s.logger.Debug("SMS sent", zap.String("message_id", smsResp.Data.MessageID))
		}
		return nil
	}
	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}
