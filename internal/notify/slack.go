package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"biogasd/internal/model"
)

// Slack posts alert notifications to an incoming-webhook URL.
type Slack struct {
	webhookURL string
	channel    string
	client     *http.Client
}

type slackMessage struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Fallback  string  `json:"fallback,omitempty"`
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

type field struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
	Short bool   `json:"short,omitempty"`
}

func NewSlack(webhookURL, channel string) (*Slack, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("slack webhook URL cannot be empty")
	}
	return &Slack{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SendNotification sends a plain text message.
func (s *Slack) SendNotification(ctx context.Context, message string) error {
	return s.send(ctx, slackMessage{
		Channel:   s.channel,
		Text:      message,
		Username:  "Biogas Monitor",
		IconEmoji: ":factory:",
	})
}

// NotifyAlert sends one derived alert with its reading context.
func (s *Slack) NotifyAlert(ctx context.Context, alert model.Alert, r model.Reading) error {
	color := "#FFA500"
	if alert.Severity == model.SeverityCritical {
		color = "#FF0000"
	}
	fields := []field{
		{Title: "Device", Value: alert.DeviceID, Short: true},
		{Title: "Severity", Value: string(alert.Severity), Short: true},
	}
	if r.Temperature != nil {
		fields = append(fields, field{Title: "Temperature", Value: fmt.Sprintf("%.1f°C", *r.Temperature), Short: true})
	}
	if r.Pressure != nil {
		fields = append(fields, field{Title: "Pressure", Value: fmt.Sprintf("%.1f kPa", *r.Pressure), Short: true})
	}
	if r.Methane != nil {
		fields = append(fields, field{Title: "Methane", Value: fmt.Sprintf("%.1f ppm", *r.Methane), Short: true})
	}
	fields = append(fields, field{Title: "Time", Value: alert.Timestamp.Format(time.RFC1123), Short: false})

	return s.send(ctx, slackMessage{
		Channel:   s.channel,
		Username:  "Biogas Monitor",
		IconEmoji: ":rotating_light:",
		Attachments: []attachment{{
			Fallback:  fmt.Sprintf("%s on %s", alert.Message, alert.DeviceID),
			Color:     color,
			Title:     "Digester Alert",
			Text:      alert.Message,
			Fields:    fields,
			Footer:    "Biogas Digester Monitoring",
			Timestamp: alert.Timestamp.Unix(),
		}},
	})
}

func (s *Slack) send(ctx context.Context, message slackMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error marshaling slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %s", resp.Status)
	}
	return nil
}
