package notify

import (
	"fmt"
	"net/smtp"

	"github.com/clinicconnect/clinic-api/config"
)

const (
	confirmationSubject = "Xác nhận lịch khám bệnh"
	cancellationSubject = "Thông báo hủy lịch hẹn khám bệnh"
)

// SMTPDispatcher sends appointment emails through a plain SMTP relay.
type SMTPDispatcher struct {
	Host string
	Port uint16
	From string
	Auth smtp.Auth
}

// NewSMTPDispatcher builds a dispatcher from the loaded configuration.
func NewSMTPDispatcher(cfg *config.Config) *SMTPDispatcher {
	var auth smtp.Auth
	if cfg.EmailUser != "" {
		auth = smtp.PlainAuth("", cfg.EmailUser, cfg.EmailPass, cfg.EmailHost)
	}
	from := cfg.EmailFrom
	if from == "" {
		from = cfg.EmailUser
	}
	return &SMTPDispatcher{
		Host: cfg.EmailHost,
		Port: cfg.EmailPort,
		From: from,
		Auth: auth,
	}
}

func (d *SMTPDispatcher) sendHTML(to, subject, htmlBody string) error {
	if d.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s\r\n", to, d.From, subject, htmlBody))
	addr := fmt.Sprintf("%s:%d", d.Host, d.Port)
	return smtp.SendMail(addr, d.Auth, d.From, []string{to}, msg)
}

// SendConfirmation delivers the confirmation email for a confirmed appointment.
func (d *SMTPDispatcher) SendConfirmation(msg ConfirmationEmail) error {
	body := fmt.Sprintf(`<p>Xin chào <b>%s</b>,</p>
<p>Lịch khám của bạn đã được bác sĩ xác nhận.</p>
<ul>
  <li><b>Bác sĩ:</b> %s</li>
  <li><b>Thời gian:</b> %s lúc %s</li>
</ul>
<p>Vui lòng đến đúng giờ. Xin cảm ơn!</p>`,
		msg.PatientName, msg.DoctorName, msg.Date, msg.Time)
	return d.sendHTML(msg.To, confirmationSubject, body)
}

// SendCancellation delivers the cancellation email with reason and notes.
func (d *SMTPDispatcher) SendCancellation(msg CancellationEmail) error {
	reason := msg.Reason
	if reason == "" {
		reason = "Không có lý do cụ thể"
	}
	notes := msg.Notes
	if notes == "" {
		notes = "Không có ghi chú"
	}
	body := fmt.Sprintf(`<h2>Chào %s,</h2>
<p>Cuộc hẹn với bác sĩ <strong>%s</strong> vào ngày <strong>%s</strong> lúc <strong>%s</strong> đã được <span style="color: red;">hủy</span>.</p>
<p><strong>Lý do hủy:</strong> %s</p>
<p><strong>Ghi chú bổ sung:</strong> %s</p>
<p>Nếu bạn có bất kỳ thắc mắc nào, vui lòng liên hệ phòng khám để được hỗ trợ.</p>
<br/>
<p>Trân trọng,</p>
<p>Phòng khám ClinicConnect</p>`,
		msg.PatientName, msg.DoctorName, msg.Date, msg.Time, reason, notes)
	return d.sendHTML(msg.To, cancellationSubject, body)
}
