package verification

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"

	"github.com/woodchat/woodchat-backend/internal/config"
)

// Mailer delivers verification mail.
type Mailer interface {
	SendVerificationMail(to, code string, changePassword bool) error
}

// SMTPMailer sends verification mail over SMTP. The mail body carries a
// clickable link back to the verify endpoint plus the raw code for clients
// that submit it manually.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	site   config.SiteConfig
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg config.SMTPConfig, site config.SiteConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		site:   site,
	}
}

func (m *SMTPMailer) SendVerificationMail(to, code string, changePassword bool) error {
	link := fmt.Sprintf("%s%s/api/v1/verify/email_verify?code=%s&email=%s",
		m.site.Protocol, m.site.Domain, url.QueryEscape(code), url.QueryEscape(to))

	subject := "Verify your email address"
	intro := "Thanks for signing up. Use the code below to verify your email address."
	if changePassword {
		subject = "Confirm your password change"
		intro = "A password change was requested for your account. Use the code below to confirm it."
	}

	body := fmt.Sprintf(`<p>%s</p>
<p>Your verification code: <strong>%s</strong></p>
<p>Or click the link: <a href="%s">%s</a></p>
<p>The code expires in 5 minutes. If you did not request this, you can ignore this mail.</p>`,
		intro, code, link, link)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}
