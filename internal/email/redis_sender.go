package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"agriconnect/backend/internal/config"
)

// RedisSender implements the Sender interface by storing emails in Redis.
// Used when MOCK_SERVICES=true so integration tests can retrieve outgoing
// notifications through the service API instead of a real mailbox.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// Send stores a representation of the email in Redis instead of sending it.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	// Classify the notification from the subject so tests can look up the
	// exact email they expect
	kind := "unknown"
	switch {
	case strings.Contains(subject, "New contact request"):
		kind = NotifRequestReceived
	case strings.Contains(subject, "accepted"):
		kind = NotifRequestAccepted
	case strings.Contains(subject, "declined"):
		kind = NotifRequestRejected
	case strings.Contains(subject, "dispute"):
		kind = NotifDisputeResolved
	}

	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, kind)
	ttl := 5 * time.Minute

	err = s.client.Set(ctx, key, jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, ttl, strings.Join(to, ", "), subject)
	return nil
}
