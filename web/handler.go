package web

import (
	"encoding/json"
	"net/http"

	"meetscribe/analyze"
	"meetscribe/mail"
	"meetscribe/metrics"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"llm":     s.llmModel,
		"whisper": s.whisperModel,
	})
}

type processTranscriptRequest struct {
	Transcript   string                `json:"transcript"`
	Participants []analyze.Participant `json:"participants"`
	MeetingTitle string                `json:"meeting_title"`
}

// handleProcessTranscript is the synchronous analysis route: raw transcript
// in, Analysis Result out, with the same action-item emails the streaming
// path sends.
func (s *Server) handleProcessTranscript(w http.ResponseWriter, r *http.Request) {
	var req processTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Transcript == "" {
		writeDetail(w, http.StatusBadRequest, "transcript is required")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.Transcript, req.Participants, nil)
	if err != nil {
		metrics.Analyses.WithLabelValues("error").Inc()
		s.logger.Error("transcript processing failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.Analyses.WithLabelValues("ok").Inc()

	mail.NotifyAssignees(r.Context(), s.sender, req.Participants, result, s.logger)

	writeJSON(w, http.StatusOK, result)
}

type testEmailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeDetail(w, http.StatusBadRequest, "email is required")
		return
	}

	if s.sender == nil {
		writeDetail(w, http.StatusInternalServerError, "SendGrid not configured")
		return
	}

	err := s.sender.Send(r.Context(), "", req.Email,
		"Test Email from AI Meeting Assistant",
		"If you receive this, your email configuration is working correctly.",
		"")
	if err != nil {
		s.logger.Error("test email failed", "email", req.Email, "error", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshots())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
