package mail

import (
	gomail "gopkg.in/gomail.v2"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// SMTPSender - ...
type SMTPSender struct {
	cfg    Config
	dialer *gomail.Dialer
}

// InitSMTPSender - ...
func InitSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: &gomail.Dialer{Host: cfg.Server, Port: cfg.Port},
	}
}

// Send - ...
func (s *SMTPSender) Send(msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event":      "mail_sent",
		"recipients": len(msg.To),
	}).Info(msg.Subject)
	return nil
}
