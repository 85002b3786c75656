package record

import (
	"encoding/json"
	"fmt"

	"meetscribe/analyze"
)

// ControlFrame is the closed set of text frames a client may send. Frames
// are parsed once at the connection boundary; everything past that point
// works with typed values.
type ControlFrame interface {
	controlFrame()
}

// MetadataFrame establishes the roster and title and starts the recording.
type MetadataFrame struct {
	Participants []analyze.Participant `json:"participants"`
	Title        string                `json:"title"`
}

// ChunkSeqFrame declares the sequence number of the chunk the client just
// sent. Advisory only.
type ChunkSeqFrame struct {
	Seq *int64 `json:"seq"`
}

// MuteEventFrame records a microphone mute or unmute.
type MuteEventFrame struct {
	TimestampMS int64 `json:"timestamp"`
	Muted       bool  `json:"muted"`
}

// StopFrame asks for the transcribe → analyze → notify → complete sequence.
type StopFrame struct{}

func (*MetadataFrame) controlFrame()  {}
func (*ChunkSeqFrame) controlFrame()  {}
func (*MuteEventFrame) controlFrame() {}
func (*StopFrame) controlFrame()      {}

// ParseControlFrame decodes a text frame into its typed form.
func ParseControlFrame(data []byte) (ControlFrame, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("control frame: %w", err)
	}

	switch envelope.Type {
	case "metadata":
		var f MetadataFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("metadata frame: %w", err)
		}
		return &f, nil
	case "chunk_seq":
		var f ChunkSeqFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("chunk_seq frame: %w", err)
		}
		return &f, nil
	case "mute_event":
		var f MuteEventFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("mute_event frame: %w", err)
		}
		return &f, nil
	case "stop":
		return &StopFrame{}, nil
	default:
		return nil, fmt.Errorf("unknown control frame type %q", envelope.Type)
	}
}
