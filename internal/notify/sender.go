package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
)

// Sender delivers customer notifications to the external gateway as signed
// JSON posts. Delivery runs inside a queue worker, so a returned error puts
// the whole action task back on the retry schedule.
type Sender struct {
	db         *pgxpool.Pool
	httpClient *http.Client
	gatewayURL string
	secret     string
}

func NewSender(db *pgxpool.Pool, gatewayURL, secret string) *Sender {
	return &Sender{
		db: db,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		gatewayURL: gatewayURL,
		secret:     secret,
	}
}

func (s *Sender) Send(ctx context.Context, n workflow.CustomerNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notify-Signature", sign(payload, s.secret))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.record(ctx, n, payload, 0)
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	s.record(ctx, n, payload, resp.StatusCode)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification gateway returned %d", resp.StatusCode)
	}
	return nil
}

func (s *Sender) record(ctx context.Context, n workflow.CustomerNotification, payload []byte, status int) {
	var deliveredAt *time.Time
	if status > 0 && status < 400 {
		now := time.Now()
		deliveredAt = &now
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_deliveries (company_id, work_order_id, recipient, payload, response_status, delivered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.CompanyID, n.WorkOrderID, n.Recipient, payload, status, deliveredAt,
	)
	if err != nil {
		slog.Error("failed to record notification delivery", "error", err)
	}
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
