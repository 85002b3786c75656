package record

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"meetscribe/analyze"
	"meetscribe/mail"
	"meetscribe/metrics"
	"meetscribe/session"
	"meetscribe/stt"
)

var errNoAudio = errors.New("No audio captured")

// Handler is the per-connection control loop: it demultiplexes binary and
// control frames, mutates the session, and on stop drives the
// transcribe → analyze → notify → complete sequence.
type Handler struct {
	registry    *session.Registry
	transcriber stt.Transcriber
	analyzer    *analyze.Analyzer
	sender      mail.Sender
	logger      *log.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(
	registry *session.Registry,
	transcriber stt.Transcriber,
	analyzer *analyze.Analyzer,
	sender mail.Sender,
	logger *log.Logger,
) *Handler {
	return &Handler{
		registry:    registry,
		transcriber: transcriber,
		analyzer:    analyzer,
		sender:      sender,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy is handled upstream, same as the rest of the
			// service surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// notification is the server→client envelope.
type notification struct {
	Stage   string          `json:"stage"`
	Message string          `json:"message,omitempty"`
	Result  *analyze.Result `json:"result,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "session", id, "error", err)
		return
	}

	sess := h.registry.GetOrCreate(id)
	h.logger.Info("websocket connected", "session", id)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("connection handler panic",
					"session", id, "panic", rec)
				h.notifyError(conn, fmt.Sprint(rec))
			}
		}()
		h.run(r.Context(), conn, sess)
	}()

	h.teardown(sess)
	conn.Close()
}

func (h *Handler) run(
	ctx context.Context,
	conn *websocket.Conn,
	sess *session.Session,
) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed",
					"session", sess.ID, "error", err)
			}
			return
		}

		// Activity refresh comes first, whatever the frame turns out to be.
		sess.Touch()

		switch msgType {
		case websocket.BinaryMessage:
			// The ceiling check precedes the minimum-size discard.
			if sess.WouldExceedLimit(int64(len(data))) {
				h.notifyError(conn, "Size limit exceeded (100MB)")
				return
			}
			if len(data) < session.MinChunkBytes {
				continue
			}
			if err := sess.AppendAudio(data); err != nil {
				h.logger.Error("audio append failed",
					"session", sess.ID, "error", err)
				h.notifyError(conn, "failed to store audio chunk")
				return
			}
			metrics.AudioBytesReceived.Add(float64(len(data)))

		case websocket.TextMessage:
			frame, err := ParseControlFrame(data)
			if err != nil {
				h.logger.Warn("ignoring control frame",
					"session", sess.ID, "error", err)
				continue
			}

			switch f := frame.(type) {
			case *MetadataFrame:
				sess.SetMetadata(f.Participants, f.Title)
				h.logger.Info("metadata received, recording started",
					"session", sess.ID,
					"participants", len(f.Participants))

			case *ChunkSeqFrame:
				if f.Seq == nil {
					continue
				}
				if gap, expected := sess.RecordChunkSeq(*f.Seq); gap {
					h.logger.Warn("missing chunks detected",
						"session", sess.ID,
						"expected", expected, "got", *f.Seq)
				}

			case *MuteEventFrame:
				sess.RecordMute(analyze.MuteEvent{
					TimestampMS: f.TimestampMS,
					Muted:       f.Muted,
				})
				h.logger.Info("mute event",
					"session", sess.ID,
					"muted", f.Muted, "timestamp", f.TimestampMS)

			case *StopFrame:
				if err := h.finish(ctx, conn, sess); err != nil {
					h.logger.Error("stop sequence failed",
						"session", sess.ID, "error", err)
					h.notifyError(conn, err.Error())
				}
				return
			}
		}
	}
}

// finish runs the terminal sequence. Any error leaves the session
// unfinalized so the client can reconnect and resend stop within the idle
// window.
func (h *Handler) finish(
	ctx context.Context,
	conn *websocket.Conn,
	sess *session.Session,
) error {
	if sess.BytesReceived() == 0 {
		return errNoAudio
	}

	h.notify(conn, notification{Stage: "transcribing"})
	transcript, err := h.transcriber.Transcribe(ctx, sess.Buffer.Path())
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	h.notify(conn, notification{Stage: "analyzing"})
	roster := sess.Participants()
	result, err := h.analyzer.Analyze(ctx, transcript, roster, sess.MuteEvents())
	if err != nil {
		metrics.Analyses.WithLabelValues("error").Inc()
		return fmt.Errorf("analysis failed: %w", err)
	}
	metrics.Analyses.WithLabelValues("ok").Inc()

	mail.NotifyAssignees(ctx, h.sender, roster, result, h.logger)

	// Finalization is gated on delivery: a client that never received the
	// result must be able to reconnect and resend stop.
	if err := h.notify(conn, notification{Stage: "complete", Result: result}); err != nil {
		return fmt.Errorf("result delivery failed: %w", err)
	}
	sess.Finalize()
	h.logger.Info("session finalized",
		"session", sess.ID, "bytes", sess.BytesReceived())
	return nil
}

// teardown runs on every exit path. A finalized session is destroyed on the
// spot; anything else stays registered for resume-after-drop and falls to
// the idle sweep.
func (h *Handler) teardown(sess *session.Session) {
	if !sess.Finalized() {
		h.logger.Info("keeping session for possible reconnect",
			"session", sess.ID)
		return
	}
	if err := sess.Buffer.Remove(); err != nil {
		h.logger.Error("buffer cleanup failed",
			"session", sess.ID, "error", err)
	}
	h.registry.Remove(sess.ID)
}

// notify writes one server→client envelope. Progress stages are best-effort;
// only the complete frame's delivery is load-bearing.
func (h *Handler) notify(conn *websocket.Conn, n notification) error {
	if err := conn.WriteJSON(n); err != nil {
		h.logger.Error("notification write failed",
			"stage", n.Stage, "error", err)
		return err
	}
	return nil
}

func (h *Handler) notifyError(conn *websocket.Conn, msg string) {
	h.notify(conn, notification{Stage: "error", Message: msg})
}
