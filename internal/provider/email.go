package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	sendGridBaseURL      = "https://api.sendgrid.com"
	defaultMailerTimeout = 10 * time.Second
)

// Email is one templated transactional send.
type Email struct {
	To         string
	Subject    string
	TemplateID string
	Data       map[string]any
}

// Mailer is the outbound transactional email port. Failures are always
// swallowed by callers after logging; mail never blocks a state transition.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

var _ Mailer = (*SendGridMailer)(nil)

type SendGridMailer struct {
	client    *resty.Client
	fromEmail string
}

func NewSendGridMailer(apiKey, fromEmail string) (*SendGridMailer, error) {
	client := resty.New()
	client.SetBaseURL(sendGridBaseURL)
	client.SetTimeout(defaultMailerTimeout)
	client.SetRetryCount(0)

	return NewSendGridMailerWithClient(apiKey, fromEmail, client)
}

func NewSendGridMailerWithClient(apiKey, fromEmail string, client *resty.Client) (*SendGridMailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(fromEmail) == "" {
		return nil, fmt.Errorf("from email is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultMailerTimeout)
	}
	client.SetRetryCount(0)
	client.SetAuthToken(apiKey)

	return &SendGridMailer{
		client:    client,
		fromEmail: fromEmail,
	}, nil
}

type sendGridPersonalization struct {
	To                  []sendGridAddress `json:"to"`
	DynamicTemplateData map[string]any    `json:"dynamic_template_data,omitempty"`
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject,omitempty"`
	TemplateID       string                    `json:"template_id"`
}

func (m *SendGridMailer) Send(ctx context.Context, email Email) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("mailer is not initialized")
	}
	if strings.TrimSpace(email.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(email.TemplateID) == "" {
		return fmt.Errorf("template id is required")
	}

	body := sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To:                  []sendGridAddress{{Email: email.To}},
			DynamicTemplateData: email.Data,
		}},
		From:       sendGridAddress{Email: m.fromEmail},
		Subject:    email.Subject,
		TemplateID: email.TemplateID,
	}

	response, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v3/mail/send")
	if err != nil {
		return &ProviderError{
			Message:   "mail request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &ProviderError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("mail provider returned status %d", statusCode),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}
