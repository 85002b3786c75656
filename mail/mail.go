package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"meetscribe/analyze"
	"meetscribe/metrics"
)

const actionItemsSubject = "Your action items from today’s meeting"

// Sender is the notification capability. Failures are the caller's to log,
// never to propagate to a client.
type Sender interface {
	Send(ctx context.Context, toName, toEmail, subject, plainBody, htmlBody string) error
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
}

func NewSendGridSender(apiKey, fromEmail string) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
	}
}

func (s *SendGridSender) Send(
	ctx context.Context,
	toName, toEmail, subject, plainBody, htmlBody string,
) error {
	from := sgmail.NewEmail("AI Meeting Assistant", s.fromEmail)
	to := sgmail.NewEmail(toName, toEmail)
	if htmlBody == "" {
		htmlBody = plainBody
	}
	message := sgmail.NewSingleEmail(from, subject, to, plainBody, htmlBody)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ActionItemsBody renders the per-participant summary email.
func ActionItemsBody(name, summary string, tasks []analyze.Task) string {
	var items strings.Builder
	items.WriteString("<ul>")
	for _, t := range tasks {
		deadline := "N/A"
		if t.Deadline != nil && *t.Deadline != "" {
			deadline = *t.Deadline
		}
		fmt.Fprintf(&items, "<li>%s (Deadline: %s)</li>", t.Task, deadline)
	}
	items.WriteString("</ul>")

	return fmt.Sprintf(
		"Hi %s,<br><br>"+
			"Here’s a summary of the meeting:<br>%s<br><br>"+
			"Your action items:<br>%s<br><br>"+
			"Thanks!",
		name, summary, items.String(),
	)
}

// NotifyAssignees emails every analyzer-returned participant whose email
// matches the input roster and who has at least one task. Individual
// failures are logged and counted, nothing more.
func NotifyAssignees(
	ctx context.Context,
	sender Sender,
	roster []analyze.Participant,
	result *analyze.Result,
	logger *log.Logger,
) {
	if sender == nil {
		return
	}

	known := make(map[string]bool, len(roster))
	for _, p := range roster {
		known[p.Email] = true
	}

	for _, p := range result.Participants {
		if !known[p.Email] || len(p.Tasks) == 0 {
			continue
		}
		body := ActionItemsBody(p.Name, result.Summary, p.Tasks)
		err := sender.Send(ctx, p.Name, p.Email, actionItemsSubject, "", body)
		if err != nil {
			logger.Error("failed to send action items",
				"email", p.Email, "error", err)
			metrics.EmailsSent.WithLabelValues("error").Inc()
			continue
		}
		metrics.EmailsSent.WithLabelValues("ok").Inc()
	}
}
