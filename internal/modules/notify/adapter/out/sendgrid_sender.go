package out

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"studyhub/internal/modules/notify/domain"
	notifyout "studyhub/internal/modules/notify/port/out"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

type SendGridSender struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGridSender(key, appName, fromEmail string) notifyout.Sender {
	return NewSendGridSenderWithHost(key, appName, fromEmail, sendGridHost)
}

// NewSendGridSenderWithHost points the sender at another API host.
func NewSendGridSenderWithHost(key, appName, fromEmail, host string) notifyout.Sender {
	return &SendGridSender{
		key:        key,
		host:       host,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *SendGridSender) Send(ctx context.Context, contact string, msg domain.Message) error {
	if contact == "" {
		return fmt.Errorf("sendgrid: empty recipient")
	}
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail("", contact))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
