// Package mail delivers transactional email, currently only the magic-link
// sign-in message.
//
// Delivery is behind the Mailer interface so the server can run against the
// Resend HTTP API in production and a log-only mailer in development and
// tests. Send failures are returned to the caller exactly once; there is no
// retry queue, matching the sign-in contract where a failed send surfaces as
// a one-shot notice.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ResendMailer delivers mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewResendMailer creates a mailer using the given API key and sender
// address.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts the message to the Resend /emails endpoint. Non-2xx responses
// are returned as errors with the response body for diagnosis.
func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email delivery failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	return nil
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development, where the magic link can be copied straight from the log
// output.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer that logs instead of sending.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, html string) error {
	m.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("html", html).
		Msg("mail send (log only)")
	return nil
}

var magicLinkTemplate = template.Must(template.New("magic_link").Parse(`<body style="background: #f9f9f9;">
  <table width="100%" border="0" cellspacing="20" cellpadding="0" style="background: #fff; max-width: 600px; margin: auto; border-radius: 10px;">
    <tr>
      <td align="center" style="padding: 10px 0px; font-size: 22px; font-family: Helvetica, Arial, sans-serif; color: #444;">
        Sign in to <strong>Vesteria</strong>
      </td>
    </tr>
    <tr>
      <td align="center" style="padding: 20px 0;">
        <table border="0" cellspacing="0" cellpadding="0">
          <tr>
            <td align="center" style="border-radius: 5px; background: #346df1;">
              <a href="{{.URL}}" target="_blank" style="font-size: 18px; font-family: Helvetica, Arial, sans-serif; color: #fff; text-decoration: none; padding: 10px 20px; display: inline-block;">
                Sign in
              </a>
            </td>
          </tr>
        </table>
      </td>
    </tr>
    <tr>
      <td align="center" style="padding: 0px 0px 10px 0px; font-size: 16px; font-family: Helvetica, Arial, sans-serif; color: #444;">
        If you did not request this email you can safely ignore it.
      </td>
    </tr>
  </table>
</body>`))

// MagicLinkHTML renders the sign-in email body for the given link URL.
func MagicLinkHTML(url string) (string, error) {
	var buf bytes.Buffer
	if err := magicLinkTemplate.Execute(&buf, struct{ URL string }{URL: url}); err != nil {
		return "", fmt.Errorf("failed to render magic link email: %w", err)
	}
	return buf.String(), nil
}
