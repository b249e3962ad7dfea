package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"
	"github.com/sony/gobreaker/v2"
)

// DefaultExpoPushURL is Expo's push send endpoint.
const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// ErrDeviceNotRegistered means the push token is stale. PushAlerter clears it.
var ErrDeviceNotRegistered = errors.New("device not registered")

// IsExpoPushToken reports whether token has the shape Expo hands out.
func IsExpoPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

// --------------------------------------------------------------------------
// Expo push client
// --------------------------------------------------------------------------

type expoMessage struct {
	To    string `json:"to"`
	Sound string `json:"sound"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type pushTicket struct {
	Data struct {
		Status  string `json:"status"`
		ID      string `json:"id"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

// ExpoClient posts single push messages to Expo. A circuit breaker stops
// hammering Expo during an outage; there is no retry.
type ExpoClient struct {
	url         string
	accessToken string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*pushTicket]
}

// NewExpoClient creates a client. An empty url uses DefaultExpoPushURL.
func NewExpoClient(url, accessToken string, httpClient *http.Client) *ExpoClient {
	if url == "" {
		url = DefaultExpoPushURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ExpoClient{
		url:         url,
		accessToken: accessToken,
		client:      httpClient,
		breaker: gobreaker.NewCircuitBreaker[*pushTicket](gobreaker.Settings{
			Name:        "expo-push",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
}

// Push sends one notification to one device token.
func (c *ExpoClient) Push(ctx context.Context, token, title, body string) error {
	ticket, err := c.breaker.Execute(func() (*pushTicket, error) {
		return c.post(ctx, expoMessage{To: token, Sound: "default", Title: title, Body: body})
	})
	if err != nil {
		return fmt.Errorf("expo push: %w", err)
	}
	if ticket.Data.Status == "error" {
		if ticket.Data.Details.Error == "DeviceNotRegistered" {
			return ErrDeviceNotRegistered
		}
		return fmt.Errorf("expo push rejected: %s", ticket.Data.Message)
	}
	return nil
}

func (c *ExpoClient) post(ctx context.Context, msg expoMessage) (*pushTicket, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var ticket pushTicket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, fmt.Errorf("decode push ticket: %w", err)
	}
	return &ticket, nil
}

// expoService adapts one device token to notify.Notifier.
type expoService struct {
	client *ExpoClient
	token  string
}

func (s *expoService) Send(ctx context.Context, subject, message string) error {
	return s.client.Push(ctx, s.token, subject, message)
}

// --------------------------------------------------------------------------
// Local alert sink
// --------------------------------------------------------------------------

// Contact is how a user can be reached right now.
type Contact struct {
	PushToken string
	Email     string
}

// ContactLookup resolves a user's contact details.
type ContactLookup interface {
	Contact(ctx context.Context, userID string) (Contact, error)
}

// PushTokenStore updates a user's push token. Satisfied by *Store.
type PushTokenStore interface {
	SetPushToken(ctx context.Context, userID, token string) error
}

// MailConfig enables the SMTP channel.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// PushAlerter is the local alert sink: Expo push to the user's device plus an
// optional mail copy. Nil-safe: when neither channel is configured the
// constructor returns nil and Alert reports ErrSinkDisabled.
type PushAlerter struct {
	contacts ContactLookup
	tokens   PushTokenStore
	expo     *ExpoClient
	mail     *MailConfig
	logger   *slog.Logger
}

// NewPushAlerter returns nil if expo and mail are both nil. tokens may be nil,
// in which case stale push tokens are only logged.
func NewPushAlerter(contacts ContactLookup, tokens PushTokenStore, expo *ExpoClient, mailCfg *MailConfig, logger *slog.Logger) *PushAlerter {
	if expo == nil && mailCfg == nil {
		return nil
	}
	return &PushAlerter{contacts: contacts, tokens: tokens, expo: expo, mail: mailCfg, logger: logger}
}

// Alert sends title/body to every channel the user can be reached on.
func (a *PushAlerter) Alert(ctx context.Context, userID, title, body string) error {
	if a == nil {
		return ErrSinkDisabled
	}
	c, err := a.contacts.Contact(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup contact: %w", err)
	}

	// Fresh notifier per alert: notify services accumulate receivers, so a
	// shared one would leak recipients across users.
	n := notify.New()
	channels := 0
	if a.expo != nil && c.PushToken != "" {
		n.UseServices(&expoService{client: a.expo, token: c.PushToken})
		channels++
	}
	if a.mail != nil && c.Email != "" {
		m := mail.New(a.mail.From, fmt.Sprintf("%s:%d", a.mail.Host, a.mail.Port))
		m.AuthenticateSMTP("", a.mail.User, a.mail.Password, a.mail.Host)
		m.AddReceivers(c.Email)
		n.UseServices(m)
		channels++
	}
	if channels == 0 {
		return ErrNoRecipient
	}

	if err := n.Send(ctx, title, body); err != nil {
		if errors.Is(err, ErrDeviceNotRegistered) {
			a.dropPushToken(ctx, userID)
		}
		return fmt.Errorf("send alert: %w", err)
	}
	a.logger.Debug("alert sent", "user_id", userID, "channels", channels)
	return nil
}

// dropPushToken clears a token Expo no longer accepts so later alerts skip
// the push channel instead of failing on it.
func (a *PushAlerter) dropPushToken(ctx context.Context, userID string) {
	if a.tokens == nil {
		a.logger.Warn("stale push token kept, no token store", "user_id", userID)
		return
	}
	if err := a.tokens.SetPushToken(ctx, userID, ""); err != nil {
		a.logger.Warn("failed to clear stale push token", "user_id", userID, "error", err)
		return
	}
	if inv, ok := a.contacts.(interface{ Invalidate(userID string) }); ok {
		inv.Invalidate(userID)
	}
	a.logger.Info("Stale push token cleared", "user_id", userID)
}
