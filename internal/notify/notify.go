// Package notify renders matched rows into channel-native payloads and
// delivers them. Each channel is an independent implementation of Notifier
// over the shared RowData model; the channel type selects the implementation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sheetwatch/sheetwatch/internal/config"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// Notifier renders and delivers one notification for a set of matched rows.
type Notifier interface {
	Send(ctx context.Context, rows []models.RowData) error
}

// Options carries everything a channel needs to render and deliver.
type Options struct {
	Rule      config.Rule
	SheetInfo models.SheetInfo
	// Labels maps column letters to header text. May be empty; renderers
	// apply their own fallback per column.
	Labels     map[string]string
	SMTP       config.SMTPConfig
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Now is the clock used for embed and footer timestamps. Nil means time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 5 * time.Second}
}

// DeliveryError reports a transport-level dispatch failure, carrying the
// response body for the operator.
type DeliveryError struct {
	Channel    models.ChannelType
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: status %d (%s)", e.Channel, e.StatusCode, e.Body)
}

// New selects the notifier for the rule's channel type. An unknown channel
// is a configuration error and is reported before any transport call.
func New(opts Options) (Notifier, error) {
	switch opts.Rule.Channel {
	case models.ChannelSlack:
		return &SlackNotifier{opts: opts}, nil
	case models.ChannelDiscord:
		return &DiscordNotifier{opts: opts}, nil
	case models.ChannelEmail:
		return &EmailNotifier{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: unknown channel type %q", config.ErrInvalid, opts.Rule.Channel)
	}
}

// Dispatch sends one notification for the matched rows. Zero rows is a
// logged no-op; no transport is invoked.
func Dispatch(ctx context.Context, opts Options, rows []models.RowData) error {
	if len(rows) == 0 {
		opts.logger().Info("no rows to notify", "rule", opts.Rule.Name)
		return nil
	}
	notifier, err := New(opts)
	if err != nil {
		return err
	}
	if err := notifier.Send(ctx, rows); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", opts.Rule.Channel, err)
	}
	opts.logger().Info("notification sent", "rule", opts.Rule.Name, "channel", opts.Rule.Channel, "rows", len(rows))
	return nil
}

// postJSON delivers a JSON payload to a webhook URL and returns the response
// status and body.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create webhook request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := client.Do(request)
	if err != nil {
		return 0, "", fmt.Errorf("webhook request failed: %w", err)
	}
	defer response.Body.Close()
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, "", fmt.Errorf("failed to read webhook response: %w", err)
	}
	return response.StatusCode, string(responseBody), nil
}
