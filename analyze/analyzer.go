package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"meetscribe/llm"
)

// ErrBadModelOutput means the language model response contained no JSON we
// could recover, even after stripping a fenced code block.
var ErrBadModelOutput = errors.New("language model did not produce valid JSON")

// Participant is a roster entry as supplied by the client.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MuteEvent records a microphone mute or unmute during capture.
type MuteEvent struct {
	TimestampMS int64 `json:"timestamp"`
	Muted       bool  `json:"muted"`
}

type Task struct {
	Task     string  `json:"task"`
	Deadline *string `json:"deadline"`
}

type ResultParticipant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Tasks []Task `json:"tasks"`
}

// Result is the validated structured output of an analysis run. Transcript
// always carries the original untruncated text, never the capped window.
type Result struct {
	Summary      string              `json:"meeting_summary"`
	Transcript   string              `json:"transcript"`
	Participants []ResultParticipant `json:"participants"`
}

const fallbackSummary = "Meeting summary unavailable."

// Analyzer turns raw transcript text into a Result, repairing and degrading
// model output along the way rather than failing where it can avoid it.
type Analyzer struct {
	model  llm.LanguageModel
	logger *log.Logger
}

func New(model llm.LanguageModel, logger *log.Logger) *Analyzer {
	return &Analyzer{
		model:  model,
		logger: logger,
	}
}

// Analyze sends the transcript and roster to the language model and
// reconciles the response into a Result. Only the no-JSON case and upstream
// model failures are reported as errors; every other anomaly degrades.
func (a *Analyzer) Analyze(
	ctx context.Context,
	transcript string,
	roster []Participant,
	muteEvents []MuteEvent,
) (*Result, error) {
	// Windowing is defined but the current policy analyzes only the capped
	// head of the transcript. Keeping the call so future map-reduce over
	// all windows slots in here.
	_ = Chunk(transcript, ChunkSize, ChunkOverlap)
	window := Cap(transcript, TranscriptCap)

	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString("Participants list: ")
	prompt.Write(rosterJSON)
	prompt.WriteString(renderMuteNote(muteEvents))
	prompt.WriteString("\n\nTranscript:\n")
	prompt.WriteString(window)

	content, err := a.model.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt.String(),
		JSONOnly:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	output, err := parseModelOutput(content)
	if err != nil {
		a.logger.Warn("model output unparsable",
			"head", head(content, 100), "error", err)
		return nil, err
	}

	cleaned := a.reconcile(output.Participants, roster)

	result := &Result{
		Summary:      output.MeetingSummary,
		Transcript:   transcript,
		Participants: cleaned,
	}

	if err := validateResult(result); err != nil {
		// Degrade rather than block: the summary's absence or badness must
		// never stop delivery of the reconciled participants.
		a.logger.Error("result failed validation, using fallback",
			"error", err)
		if result.Summary == "" {
			result.Summary = fallbackSummary
		}
	}

	return result, nil
}

type modelOutput struct {
	MeetingSummary string              `json:"meeting_summary"`
	Participants   []ResultParticipant `json:"participants"`
}

// parseModelOutput decodes the model response as JSON, with one bounded
// repair attempt for responses wrapped in a fenced code block.
func parseModelOutput(content string) (*modelOutput, error) {
	var out modelOutput
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return &out, nil
	}

	stripped, ok := stripFence(content)
	if !ok {
		return nil, ErrBadModelOutput
	}
	if err := json.Unmarshal([]byte(stripped), &out); err != nil {
		return nil, ErrBadModelOutput
	}
	return &out, nil
}

// stripFence extracts the body of the first fenced code block, tolerating
// an optional "json" language tag.
func stripFence(content string) (string, bool) {
	_, rest, found := strings.Cut(content, "```")
	if !found {
		return "", false
	}
	rest = strings.TrimPrefix(rest, "json")
	body, _, found := strings.Cut(rest, "```")
	if !found {
		return "", false
	}
	return strings.TrimSpace(body), true
}

// reconcile aligns model-returned participants with the input roster:
// entries missing a name or email are dropped, nil task lists become empty,
// and an empty outcome against a non-empty roster synthesizes the roster
// back with no tasks. Availability of output beats fidelity.
func (a *Analyzer) reconcile(
	returned []ResultParticipant,
	roster []Participant,
) []ResultParticipant {
	cleaned := make([]ResultParticipant, 0, len(returned))
	for _, p := range returned {
		if p.Name == "" || p.Email == "" {
			a.logger.Warn("dropping participant with missing fields",
				"name", p.Name, "email", p.Email)
			continue
		}
		if p.Tasks == nil {
			p.Tasks = []Task{}
		}
		cleaned = append(cleaned, p)
	}

	if len(cleaned) == 0 && len(roster) > 0 {
		a.logger.Warn("model returned no valid participants, using roster")
		for _, p := range roster {
			if p.Email == "" {
				continue
			}
			name := p.Name
			if name == "" {
				name = "Unknown"
			}
			cleaned = append(cleaned, ResultParticipant{
				Name:  name,
				Email: p.Email,
				Tasks: []Task{},
			})
		}
	}

	return cleaned
}

func renderMuteNote(events []MuteEvent) string {
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nMicrophone Mute Events (timestamps in milliseconds since epoch):\n")
	for _, ev := range events {
		state := "UNMUTED"
		if ev.Muted {
			state = "MUTED"
		}
		fmt.Fprintf(&b, "- %d: Microphone %s\n", ev.TimestampMS, state)
	}
	b.WriteString("\nNote: When the microphone was muted, only system audio was captured. " +
		"Insert [Microphone Muted] and [Microphone Unmuted] markers in the transcript " +
		"at appropriate locations based on these timestamps.\n")
	return b.String()
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
