package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/metrics"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/sl"
)

// Recipients of a booking confirmation.
const (
	RecipientClient   = "client"
	RecipientBusiness = "business"
	RecipientBarber   = "barber"
)

// Booking is the confirmation payload. Amounts are cents.
type Booking struct {
	BookingID      string    `json:"booking_id"`
	ClientName     string    `json:"client_name"`
	ClientPhone    string    `json:"client_phone"`
	ServiceSummary string    `json:"service_summary"`
	PriceCents     int64     `json:"price_cents"`
	BarberName     string    `json:"barber_name"`
	Instant        time.Time `json:"instant"`
}

// Sender delivers one payload to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient string, b Booking) error
}

// WebhookSender posts the payload to a per-recipient webhook URL.
type WebhookSender struct {
	client  *http.Client
	urls    map[string]string
	limiter *rate.Limiter
}

func NewWebhookSender(urls map[string]string, perSecond float64, burst int) *WebhookSender {
	return &WebhookSender{
		client:  &http.Client{Timeout: 10 * time.Second},
		urls:    urls,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *WebhookSender) Send(ctx context.Context, recipient string, b Booking) error {
	const op = "notify.WebhookSender.Send"

	url, ok := s.urls[recipient]
	if !ok || url == "" {
		return fmt.Errorf("%s: no webhook configured for %s", op, recipient)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: webhook returned %d", op, resp.StatusCode)
	}

	return nil
}

// Notifier fans a confirmation out to all recipients. Fire-and-forget:
// failures are logged and counted, never surfaced to the booking flow.
type Notifier struct {
	sender  Sender
	log     *slog.Logger
	metrics *metrics.Metrics
}

func New(sender Sender, log *slog.Logger, m *metrics.Metrics) *Notifier {
	return &Notifier{sender: sender, log: log, metrics: m}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, b Booking) {
	for _, recipient := range []string{RecipientClient, RecipientBusiness, RecipientBarber} {
		if err := n.sender.Send(ctx, recipient, b); err != nil {
			n.metrics.NotificationsFailed.WithLabelValues(recipient).Inc()
			n.log.Error("notification delivery failed",
				slog.String("recipient", recipient),
				slog.String("booking_id", b.BookingID),
				sl.Err(err),
			)
			continue
		}

		n.log.Info("notification delivered",
			slog.String("recipient", recipient),
			slog.String("booking_id", b.BookingID),
		)
	}
}
