package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = user
	}
	return &EmailSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(_ context.Context, n Notification) error {
	to := n.Appointment.Customer.Email
	if to == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", n.Subject())
	m.SetHeader("X-Event-ID", n.EventID)
	m.SetBody("text/plain", n.Body())

	return s.dialer.DialAndSend(m)
}

var _ Sender = (*EmailSender)(nil)
