package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"casa-empenos/internal/adapters/persistence/models"

	"go.uber.org/zap"
)

// DefaultLinePushURL is the LINE Messaging API push endpoint
const DefaultLinePushURL = "https://api.line.me/v2/bot/message/push"

// maxLineTextRunes is the LINE limit for one text message
const maxLineTextRunes = 5000

// NotificationService handles LINE notifications
type NotificationService struct {
	channelAccessToken string
	to                 string
	endpoint           string
	enabled            bool
	client             *http.Client
	logger             *zap.Logger
}

// NewNotificationService creates a new notification service that pushes to
// one LINE user or group. An empty token or recipient disables delivery.
func NewNotificationService(channelAccessToken, to string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		channelAccessToken: channelAccessToken,
		to:                 to,
		endpoint:           DefaultLinePushURL,
		enabled:            channelAccessToken != "" && to != "",
		client:             &http.Client{Timeout: 10 * time.Second},
		logger:             logger.Named("notify"),
	}
}

// WithEndpoint overrides the LINE push endpoint
func (s *NotificationService) WithEndpoint(endpoint string) *NotificationService {
	s.endpoint = endpoint
	return s
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// sendPushMessage sends a text message via the LINE Messaging API
func (s *NotificationService) sendPushMessage(ctx context.Context, message string) error {
	if !s.enabled {
		return nil
	}

	if runes := []rune(message); len(runes) > maxLineTextRunes {
		message = string(runes[:maxLineTextRunes-1]) + "…"
	}

	payload := map[string]interface{}{
		"to": s.to,
		"messages": []map[string]string{
			{"type": "text", "text": message},
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.channelAccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("LINE push error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// NotifyExpiringLoans sends one message listing loans close to expiry.
// Nothing is sent for an empty list.
func (s *NotificationService) NotifyExpiringLoans(ctx context.Context, loans []*models.LoanResponse) error {
	if len(loans) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Empeños por vencer: %d\n", len(loans))
	for _, l := range loans {
		fmt.Fprintf(&b, "\n📋 #%d %s (%s)\n👤 %s\n💰 %d · %d días restantes\n",
			l.ID, l.ItemType, l.Description, l.NationalID, l.CurrentValue, l.DaysLeft)
	}

	if err := s.sendPushMessage(ctx, b.String()); err != nil {
		s.logger.Warn("line push failed", zap.Int("loans", len(loans)), zap.Error(err))
		return err
	}
	return nil
}
