package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type Client struct {
	http     *resty.Client
	baseURL  string
	topic    string
	enabled  bool
	priority string
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func NewClient(baseURL, topic string, enabled bool, priority string) *Client {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("Content-Type", "text/plain")

	return &Client{
		http:     client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		topic:    topic,
		enabled:  enabled,
		priority: priority,
	}
}

// SendNotification posts message to the topic once. There is no retry.
func (c *Client) SendNotification(ctx context.Context, title, message string) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("title", title).
		Msg("Sending notification")

	req := c.http.R().
		SetContext(ctx).
		SetBody(message)
	if title != "" {
		req.SetHeader("Title", title)
	}
	if c.priority != "" {
		req.SetHeader("Priority", c.priority)
	}

	resp, err := req.Post(url)
	if err != nil {
		return &NotificationError{
			Type:       "network",
			Underlying: err,
		}
	}

	if resp.IsError() {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode()),
			StatusCode: resp.StatusCode(),
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status()),
		}
	}

	log.Debug().
		Int("status_code", resp.StatusCode()).
		Msg("Notification sent successfully")

	return nil
}

// NotifyFailures sends one message listing every failed step. Nothing is
// sent when all steps succeeded.
func (c *Client) NotifyFailures(ctx context.Context, station string, results []fault.Result) {
	if !c.enabled {
		return
	}

	message := FormatFailures(station, results)
	if message == "" {
		return
	}

	if err := c.SendNotification(ctx, "Water data scrape failed", message); err != nil {
		log.Warn().Err(err).Msg("Failed to send failure notification")
	}
}

// FormatFailures renders the failed steps as plain text, or "" if none failed.
func FormatFailures(station string, results []fault.Result) string {
	var sb strings.Builder
	for _, r := range results {
		if r.OK() {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString(fmt.Sprintf("Row %s: run had failures\n", station))
		}
		kind := fault.KindOf(r.Err)
		if kind == "" {
			kind = "error"
		}
		sb.WriteString(fmt.Sprintf("- %s (%s): %v\n", r.Step, kind, r.Err))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}
