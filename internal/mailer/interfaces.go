package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendNewsletterWelcome(email, name string) error
}
