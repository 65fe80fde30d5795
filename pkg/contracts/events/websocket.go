// Package events contains the messages streamed to WebSocket clients while
// forecast runs execute.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeConnect      MessageType = "connect"
	MessageTypeRunStarted   MessageType = "run:started"
	MessageTypeStageUpdate  MessageType = "stage:update"
	MessageTypeRunCompleted MessageType = "run:completed"
	MessageTypeRunFailed    MessageType = "run:failed"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Message is one event of a run.
type Message struct {
	BaseMessage
	RunID string      `json:"run_id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// NewMessage stamps a message with the current time.
func NewMessage(t MessageType, runID string, data interface{}) Message {
	return Message{
		BaseMessage: BaseMessage{Type: t, Timestamp: time.Now().UTC()},
		RunID:       runID,
		Data:        data,
	}
}

// StageSnapshot is the state of one stage when it changed.
type StageSnapshot struct {
	Name       string `json:"name"`
	Status     string `json:"status"` // active|completed|failed|skipped
	Records    int    `json:"records"`
	DurationMS int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RunSnapshot summarizes a run when it starts or ends.
type RunSnapshot struct {
	Model      string   `json:"model"`
	Horizon    int      `json:"horizon"`
	Stages     int      `json:"stages,omitempty"`
	MAE        *float64 `json:"mae,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ConnectSnapshot greets a newly connected client.
type ConnectSnapshot struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}
