package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Attachment is one file to send with a message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a mail to be delivered, immediately or at SendAt.
type Message struct {
	To          []string
	CC          []string
	Subject     string
	Body        string
	SendAt      time.Time // zero means send now
	Attachments []Attachment
}

// Mailer schedules outgoing mail.
type Mailer interface {
	Schedule(ctx context.Context, msg Message) error
}

// GatewayClient delivers messages through the HTTP mail gateway.
type GatewayClient struct {
	client *resty.Client
}

func NewGatewayClient(baseURL, apiKey string) *GatewayClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Authorization", "Bearer "+apiKey)
	return &GatewayClient{client: client}
}

type gatewayAttachment struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"content_base64"`
}

type gatewayMessage struct {
	To          []string            `json:"to"`
	CC          []string            `json:"cc,omitempty"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	SendAt      string              `json:"send_at,omitempty"` // RFC 3339
	Attachments []gatewayAttachment `json:"attachments,omitempty"`
}

func (c *GatewayClient) Schedule(ctx context.Context, msg Message) error {
	payload := gatewayMessage{
		To:      msg.To,
		CC:      msg.CC,
		Subject: msg.Subject,
		Body:    msg.Body,
	}
	if !msg.SendAt.IsZero() {
		payload.SendAt = msg.SendAt.Format(time.RFC3339)
	}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, gatewayAttachment{
			Filename:      a.Filename,
			ContentBase64: base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/v1/messages")
	if err != nil {
		return fmt.Errorf("mail gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail gateway: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
