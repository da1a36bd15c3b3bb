// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"html"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// EmailClient sends one plain-text message.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailClient.
type SendGridClient struct {
	apiKey string
	log    *logrus.Logger
}

func NewSendGridClient(apiKey string, log *logrus.Logger) *SendGridClient {
	return &SendGridClient{apiKey: apiKey, log: log}
}

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return errors.New("sendgrid: api key is empty")
	}
	if from == "" {
		return errors.New("sendgrid: from address is empty")
	}
	if to == "" {
		return errors.New("sendgrid: to address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail("Anusswar", from),
		subject,
		sgmail.NewEmail("", to),
		body,
		"<pre>"+html.EscapeString(body)+"</pre>",
	)

	response, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return errors.Wrap(err, "sendgrid: send")
	}

	entry := c.log.WithFields(logrus.Fields{"status": response.StatusCode, "to": to, "subject": subject})
	if response.StatusCode >= 400 {
		entry.WithField("body", response.Body).Error("[sendgrid] send failed")
		return errors.Errorf("sendgrid: send failed status=%d", response.StatusCode)
	}

	entry.Info("[sendgrid] mail sent")
	return nil
}
