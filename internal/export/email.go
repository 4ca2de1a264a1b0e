package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const emailHeader = `<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`

const emailFooter = `  </body>
</html>
`

// Mailer delivers one HTML message.
type Mailer interface {
	Send(subject, body string) error
}

// SendgridMailer sends mail through the sendgrid API.
type SendgridMailer struct {
	APIKey string
	From   string
	To     string
}

func (m SendgridMailer) Send(subject, body string) error {
	if m.APIKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}
	from := mail.NewEmail("spotify-genre-tools", m.From)
	to := mail.NewEmail(m.To, m.To)
	message := mail.NewSingleEmail(from, subject, to, "", body)
	client := sendgrid.NewSendClient(m.APIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendEmail: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// EmailSink collects tables and mails them as one HTML report on Flush. With
// DryRun set the message is printed to Out instead.
type EmailSink struct {
	Mailer  Mailer
	Subject string
	DryRun  bool
	Out     io.Writer

	tables []Table
}

func (s *EmailSink) WriteTable(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.tables = append(s.tables, t)
	return nil
}

// Body renders the collected tables.
func (s *EmailSink) Body() string {
	var out strings.Builder
	out.WriteString(emailHeader)
	for _, t := range s.tables {
		out.WriteString(t.HTML())
	}
	out.WriteString(emailFooter)
	return out.String()
}

func (s *EmailSink) Flush() error {
	if len(s.tables) == 0 {
		return nil
	}
	body := s.Body()
	s.tables = nil

	if s.DryRun {
		_, err := fmt.Fprintf(s.Out, "Would have sent email: \nsubject: %s\n%s\n", s.Subject, body)
		return err
	}
	return s.Mailer.Send(s.Subject, body)
}
