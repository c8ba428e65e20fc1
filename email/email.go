package email

import (
	"fmt"

	"github.com/dugsiiye/barasho/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional mail through sendgrid. When no API key is
// configured it becomes a no-op so local development works without one.
type Mailer struct {
	cfg  config.Email
	from *mail.Email
}

func New(cfg config.Email) *Mailer {
	return &Mailer{
		cfg:  cfg,
		from: mail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

func (m *Mailer) SendEnrollment(to, name, courseTitle string) error {
	subject := "Enrollment confirmed"
	body := fmt.Sprintf("Hi %s,\n\nYou are now enrolled in %q. Your course is waiting in your dashboard.\n\nBarasho", name, courseTitle)
	return m.send(to, name, subject, body)
}

func (m *Mailer) SendCreditsReceipt(to, name string, credits int) error {
	subject := "Credits added"
	body := fmt.Sprintf("Hi %s,\n\n%d credits were added to your balance.\n\nBarasho", name, credits)
	return m.send(to, name, subject, body)
}

func (m *Mailer) send(to, name, subject, body string) error {
	if !m.cfg.Enabled || m.cfg.SendgridKey == "" {
		return nil
	}

	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, to), body, "")
	client := sendgrid.NewSendClient(m.cfg.SendgridKey)

	resp, err := client.Send(msg)
	if err != nil {
		return fmt.Errorf("sending %q to %s: %w", subject, to, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sending %q to %s: sendgrid status %d", subject, to, resp.StatusCode)
	}
	return nil
}
