package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<p>Hi {{.Name}},</p>
<p>Welcome! Your account is ready. Sign in at <a href="{{.ClientURL}}">{{.ClientURL}}</a>
to find your friends and start chatting.</p>
`))

// Sender delivers transactional mail over SMTP.
type Sender struct {
	dialer    *gomail.Dialer
	from      string
	clientURL string
}

func NewSender(host string, port int, username, password, from, clientURL string) *Sender {
	return &Sender{
		dialer:    gomail.NewDialer(host, port, username, password),
		from:      from,
		clientURL: clientURL,
	}
}

func (s *Sender) SendWelcome(_ context.Context, to, name string) error {
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, struct{ Name, ClientURL string }{name, s.clientURL}); err != nil {
		return fmt.Errorf("render welcome mail: %w", err)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to the chat!")
	m.SetBody("text/html", body.String())
	return s.dialer.DialAndSend(m)
}

// Noop stands in when no SMTP host is configured.
type Noop struct{}

func (Noop) SendWelcome(context.Context, string, string) error { return nil }
