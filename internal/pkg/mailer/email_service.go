package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendHighRiskAlert(toEmail, sessionToken string, riskLevel int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendHighRiskAlert notifies the configured supervisor address that a session
// crossed the risk threshold. Contains no message content, only identifiers.
func (s *emailService) SendHighRiskAlert(toEmail, sessionToken string, riskLevel int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "High-risk session flagged")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>High-risk session flagged</h2>
			<p>Session <strong>%s</strong> was scored at risk level <strong>%d</strong>.</p>
			<p>Please review it in the supervision dashboard.</p>
		</div>
	`, sessionToken, riskLevel)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send alert to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
