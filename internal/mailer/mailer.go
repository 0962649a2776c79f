package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"github.com/justsurfingit/InternConnect/internal/logging"
	"google.golang.org/api/gmail/v1"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Gmail sends through the Gmail API as the account the OAuth token belongs to.
type Gmail struct {
	service *gmail.Service
	from    string
}

func NewGmail(service *gmail.Service, from string) *Gmail {
	return &Gmail{service: service, from: from}
}

func (g *Gmail) Send(ctx context.Context, msg Message) error {
	raw, err := BuildRaw(g.from, msg)
	if err != nil {
		return err
	}
	_, err = g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer only logs; it is used when Gmail is not configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logging.L.Info("📧 email (not sent, mailer disabled)", "to", msg.To, "subject", msg.Subject)
	return nil
}

// BuildRaw renders msg as an RFC 822 message.
func BuildRaw(from string, msg Message) ([]byte, error) {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, fmt.Errorf("subject contains a line break")
	}

	var buf bytes.Buffer
	if from != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", from)
	}
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return buf.Bytes(), nil
}
