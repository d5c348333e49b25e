package mailer

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"log"

	"github.com/civicreport/api/internal/config"
	"github.com/civicreport/api/internal/model"
	mail "github.com/go-mail/mail/v2"
)

var (
	ErrNotConfigured = errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")
	ErrNoRecipient   = errors.New("department has no contact email")
)

// Mailer tells departments about new reports. Without SMTP settings it logs
// the message and sends nothing.
type Mailer struct {
	from string
	send func(*mail.Message) error
}

func New(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return &Mailer{}
	}

	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SMTPSkipTLSVerify,
	}

	return &Mailer{
		from: cfg.SMTPFrom,
		send: func(m *mail.Message) error { return d.DialAndSend(m) },
	}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.send != nil
}

// NotifyDepartment mails the department's contact address about r.
func (m *Mailer) NotifyDepartment(dept *model.Department, r *model.Report) error {
	if dept == nil || dept.ContactEmail == nil || *dept.ContactEmail == "" {
		return ErrNoRecipient
	}

	subject, body, err := Compose(dept, r)
	if err != nil {
		return err
	}

	if !m.Enabled() {
		log.Printf("[Mailer] SMTP disabled, skipping %q to %s", subject, *dept.ContactEmail)
		return ErrNotConfigured
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", *dept.ContactEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", *dept.ContactEmail, err)
	}
	log.Printf("[Mailer] Notified %s about report #%d", dept.Name, r.ID)
	return nil
}

var bodyTemplate = template.Must(template.New("report").Parse(`<p>A new report has been assigned to <strong>{{.Department}}</strong>.</p>
<table>
<tr><td>Report</td><td>#{{.Report.ID}} {{.Report.Title}}</td></tr>
<tr><td>Category</td><td>{{.Report.Category}}</td></tr>
<tr><td>Priority</td><td>{{.Report.Priority}}</td></tr>
<tr><td>Address</td><td>{{.Report.Address}}</td></tr>
<tr><td>Contact</td><td>{{.Report.CitizenContact}}</td></tr>
</table>
<p>{{.Report.Description}}</p>
`))

// Compose renders the subject and HTML body for a department notice.
func Compose(dept *model.Department, r *model.Report) (string, string, error) {
	subject := fmt.Sprintf("[CivicReport] %s priority: %s", r.Priority, r.Title)

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Department string
		Report     *model.Report
	}{dept.Name, r})
	if err != nil {
		return "", "", fmt.Errorf("render mail body: %w", err)
	}
	return subject, buf.String(), nil
}
