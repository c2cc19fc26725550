package mailer

import (
	"fmt"

	"github.com/exhibitworks/guestbook/pkg/logger"
)

// DevMailer prints mail to the log instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
	)

	fmt.Printf("\n"+
		"=================================================================\n"+
		"MAIL (DEV MODE)\n"+
		"=================================================================\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"=================================================================\n\n",
		toEmail, toName, subject, text)

	return "dev", nil
}

func (d *DevMailer) SendNewsletterWelcome(email, name string) error {
	_, err := d.Send(email, name,
		"Welcome to the exhibit newsletter",
		newsletterWelcomeText(name),
		newsletterWelcomeHTML(name),
	)
	return err
}
