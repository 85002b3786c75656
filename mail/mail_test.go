package mail

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"meetscribe/analyze"
)

type recordedSend struct {
	To      string
	Subject string
	Body    string
}

type stubSender struct {
	mu   sync.Mutex
	err  error
	sent []recordedSend
}

func (s *stubSender) Send(
	_ context.Context,
	_, toEmail, subject, _, htmlBody string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, recordedSend{To: toEmail, Subject: subject, Body: htmlBody})
	return nil
}

func deadline(s string) *string { return &s }

func TestActionItemsBody(t *testing.T) {
	body := ActionItemsBody("Alice", "We shipped.", []analyze.Task{
		{Task: "Write release notes", Deadline: deadline("Friday")},
		{Task: "Close the milestone"},
	})

	for _, want := range []string{
		"Hi Alice,",
		"We shipped.",
		"<li>Write release notes (Deadline: Friday)</li>",
		"<li>Close the milestone (Deadline: N/A)</li>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestNotifyAssignees(t *testing.T) {
	logger := log.New(io.Discard)
	roster := []analyze.Participant{
		{Name: "Alice", Email: "alice@x.com"},
		{Name: "Bob", Email: "bob@x.com"},
	}
	result := &analyze.Result{
		Summary: "Summary.",
		Participants: []analyze.ResultParticipant{
			{Name: "Alice", Email: "alice@x.com",
				Tasks: []analyze.Task{{Task: "Do a thing"}}},
			// No tasks: no mail.
			{Name: "Bob", Email: "bob@x.com", Tasks: []analyze.Task{}},
			// Not in roster: no mail even with tasks.
			{Name: "Eve", Email: "eve@x.com",
				Tasks: []analyze.Task{{Task: "Intrude"}}},
		},
	}

	t.Run("filters roster and tasks", func(t *testing.T) {
		sender := &stubSender{}
		NotifyAssignees(context.Background(), sender, roster, result, logger)

		if len(sender.sent) != 1 {
			t.Fatalf("sent = %d mails, want 1", len(sender.sent))
		}
		if sender.sent[0].To != "alice@x.com" {
			t.Errorf("sent to %q, want alice@x.com", sender.sent[0].To)
		}
	})

	t.Run("send failures are swallowed", func(t *testing.T) {
		sender := &stubSender{err: errors.New("smtp on fire")}
		// Must not panic or propagate.
		NotifyAssignees(context.Background(), sender, roster, result, logger)
	})

	t.Run("nil sender is a no-op", func(t *testing.T) {
		NotifyAssignees(context.Background(), nil, roster, result, logger)
	})
}
