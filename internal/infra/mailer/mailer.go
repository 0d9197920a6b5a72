package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"

	"github.com/IBM/sarama"

	"stayhub/internal/app/notify"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender pushes mail through a plain SMTP relay.
type SMTPSender struct {
	Addr string
	From string
}

func (s SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.From, to, subject, body)
	return smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg))
}

// Handler consumes notification jobs off Kafka and sends the matching email.
// A malformed job is acked and dropped; a delivery failure leaves the message
// unacked for redelivery.
type Handler struct {
	Sender Sender
	Logger *slog.Logger
}

func (h Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var job notify.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		if h.Logger != nil {
			h.Logger.Error("malformed notification job", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	subject, body, err := render(job)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("notification render failed", "job_id", job.ID, "kind", job.Kind, "error", err)
		}
		return nil
	}
	if err := h.Sender.Send(ctx, job.Recipient, subject, body); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("email send failed", "job_id", job.ID, "recipient", job.Recipient, "error", err)
		}
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("email sent", "job_id", job.ID, "kind", job.Kind, "recipient", job.Recipient)
	}
	return nil
}

type mailTemplate struct {
	Subject string
	Body    *template.Template
}

var templates = map[notify.Kind]mailTemplate{
	notify.KindBookingCreated: {
		Subject: "Booking Created - {{.property}}",
		Body: template.Must(template.New("booking-created").Parse(
			`Dear {{.guest_name}},

Your booking has been created and is pending host confirmation.

Property: {{.property}}
Location: {{.location}}
Check-in: {{.start_date}}
Check-out: {{.end_date}}
Total: {{.currency}} {{.total}}

You will receive another email once the host confirms your booking.
`)),
	},
	notify.KindBookingConfirmed: {
		Subject: "Booking Confirmed - {{.property}}",
		Body: template.Must(template.New("booking-confirmed").Parse(
			`Dear {{.guest_name}},

Your booking has been confirmed by the host.

Property: {{.property}}
Location: {{.location}}
Check-in: {{.start_date}}
Check-out: {{.end_date}}
Total: {{.currency}} {{.total}}

We hope you have a wonderful stay!
`)),
	},
	notify.KindPaymentConfirmation: {
		Subject: "Payment Confirmation - Booking #{{.booking_id}}",
		Body: template.Must(template.New("payment-confirmation").Parse(
			`Dear {{.guest_name}},

Your payment has been successfully processed.

Booking reference: {{.booking_id}}
Amount paid: {{.currency}} {{.amount}}
Transaction ID: {{.transaction_id}}

Thank you for choosing our service!
`)),
	},
	notify.KindPaymentFailed: {
		Subject: "Payment Failed - Action Required",
		Body: template.Must(template.New("payment-failed").Parse(
			`Dear {{.guest_name}},

Unfortunately, your payment could not be processed.

Booking reference: {{.booking_id}}
Amount: {{.currency}} {{.amount}}

Please try again or contact our support team for assistance.
`)),
	},
}

func render(job notify.Job) (subject, body string, err error) {
	tpl, ok := templates[job.Kind]
	if !ok {
		return "", "", fmt.Errorf("mailer: unknown job kind %q", job.Kind)
	}
	subjTpl, err := template.New("subject").Parse(tpl.Subject)
	if err != nil {
		return "", "", err
	}
	var subj, out bytes.Buffer
	if err := subjTpl.Execute(&subj, job.Context); err != nil {
		return "", "", err
	}
	if err := tpl.Body.Execute(&out, job.Context); err != nil {
		return "", "", err
	}
	return subj.String(), out.String(), nil
}
