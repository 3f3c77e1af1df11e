// Package mail delivers password-reset codes.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends the password reset code to a user.
type Mailer interface {
	SendPasswordReset(to, name, code string) error
}

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

var resetTemplate = template.Must(template.New("reset").Parse(
	`<p>Hi {{.Name}},</p>
<p>Your echohub password reset code is <b>{{.Code}}</b>.</p>
<p>All of your sessions have been logged out. If you did not ask for this, you can ignore this mail.</p>`))

func (s *Sender) SendPasswordReset(to, name, code string) error {
	body, err := renderReset(name, code)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "echohub password reset")
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send reset mail to %s: %w", to, err)
	}
	return nil
}

func renderReset(name, code string) (string, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, map[string]string{"Name": name, "Code": code})
	if err != nil {
		return "", fmt.Errorf("render reset mail: %w", err)
	}
	return buf.String(), nil
}

// LogMailer is used when no SMTP host is configured. It only logs that a
// code was issued, never the code itself.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) SendPasswordReset(to, _, _ string) error {
	m.Logger.Info("smtp not configured, reset mail not sent", zap.String("to", to))
	return nil
}

// Recorder keeps every mail in memory. Err, when set, is returned from
// every send after recording it.
type Recorder struct {
	mu   sync.Mutex
	Sent []Sent
	Err  error
}

type Sent struct {
	To, Name, Code string
}

func (r *Recorder) SendPasswordReset(to, name, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, Sent{To: to, Name: name, Code: code})
	return r.Err
}

// Last returns the most recent mail.
func (r *Recorder) Last() (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return Sent{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}
