package mailersend

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
	"github.com/shefaa-icu/internal/config"
)

const sendTimeout = 10 * time.Second

// Mailer sends plain-text email through the MailerSend API.
type Mailer struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		client: mailersend.NewMailersend(cfg.MailerSendAPIKey),
		from:   mailersend.From{Name: cfg.MailerFromName, Email: cfg.SMTPFrom},
	}
}

func (m *Mailer) SendEmail(to, subject, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: to}})
	msg.SetSubject(subject)
	msg.SetText(body)

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
