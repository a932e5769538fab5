package service

import (
	"bytes"
	"fmt"
	"html/template"

	"hospital-management-backend/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// MailSender is what usecases depend on; the SMTP implementation below is
// injected at bootstrap so tests can substitute a recorder.
type MailSender interface {
	SendStatusUpdate(to, patientName, status, doctorName, date, timeSlot string)
	SendCancellation(to, patientName, doctorName, date, timeSlot string)
	SendReschedule(to, patientName, doctorName, date, timeSlot string)
	SendOTP(to, otp string)
}

const mailLayout = `
<html>
  <body style="font-family: Arial, sans-serif; background-color: #f7f7f7; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 20px;">
      <h2 style="color: #271776; text-align: center;">{{.Title}}</h2>
      <p>Dear <strong>{{.Name}}</strong>,</p>
      <p>{{.Body}}</p>
      {{if .Details}}
      <p><strong>Appointment Details:</strong></p>
      <ul>
        {{range .Details}}<li>{{.}}</li>{{end}}
      </ul>
      {{end}}
      <p>If you have any questions, contact <a href="mailto:support@example.com">support</a>.</p>
    </div>
  </body>
</html>`

var mailTemplate = template.Must(template.New("mail").Parse(mailLayout))

type mailData struct {
	Title   string
	Name    string
	Body    string
	Details []string
}

// MailService sends transactional email over SMTP via gomail. All sends are
// best-effort: a delivery failure is logged and never fails the calling
// operation.
type MailService struct {
	dialer *gomail.Dialer
	from   string
	log    *logrus.Logger
}

func NewMailService(cfg config.SMTPConfig, log *logrus.Logger) *MailService {
	return &MailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		log:    log,
	}
}

func (s *MailService) SendStatusUpdate(to, patientName, status, doctorName, date, timeSlot string) {
	s.send(to, "Appointment Status Update", mailData{
		Title: "Appointment Status Update",
		Name:  patientName,
		Body:  fmt.Sprintf("Your appointment status has been updated to: %s.", status),
		Details: []string{
			"Date: " + date,
			"Time: " + timeSlot,
			"Doctor: " + doctorName,
		},
	})
}

func (s *MailService) SendCancellation(to, patientName, doctorName, date, timeSlot string) {
	s.send(to, "Appointment Cancelled", mailData{
		Title: "Appointment Cancelled",
		Name:  patientName,
		Body: fmt.Sprintf("We regret to inform you that your appointment with %s has been cancelled. "+
			"If you paid online you will be refunded shortly.", doctorName),
		Details: []string{
			"Date: " + date,
			"Time: " + timeSlot,
		},
	})
}

func (s *MailService) SendReschedule(to, patientName, doctorName, date, timeSlot string) {
	s.send(to, "Appointment Rescheduled", mailData{
		Title: "Appointment Rescheduled",
		Name:  patientName,
		Body:  fmt.Sprintf("Your appointment with %s has been rescheduled.", doctorName),
		Details: []string{
			"New Date: " + date,
			"New Time: " + timeSlot,
		},
	})
}

func (s *MailService) SendOTP(to, otp string) {
	s.send(to, "Password Reset OTP", mailData{
		Title: "Password Reset Request",
		Name:  to,
		Body: fmt.Sprintf("Your one-time password is: %s. It is valid for 10 minutes. "+
			"If you did not request a password reset, ignore this email.", otp),
	})
}

func (s *MailService) send(to, subject string, data mailData) {
	var body bytes.Buffer
	if err := mailTemplate.Execute(&body, data); err != nil {
		s.log.Errorf("Failed to render mail template %q: %+v", subject, err)
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.log.Warnf("Failed to send %q email to %s: %+v", subject, to, err)
		return
	}
	s.log.Debugf("Sent %q email to %s", subject, to)
}
