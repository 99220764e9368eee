package gateway

import (
	"encoding/json"
	"time"
)

// Message types exchanged with the gateway.
const (
	TypeTaskAssignment = "task_assignment"
	TypeStatusUpdate   = "status_update"
	TypeTaskComplete   = "task_complete"
	TypeTaskFailed     = "task_failed"
	TypeHeartbeat      = "heartbeat"
	TypeEscalation     = "escalation"
)

// Message priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Message is the JSON envelope for all gateway traffic.
type Message struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Type        string          `json:"type"`
	Priority    string          `json:"priority"`
	Payload     json.RawMessage `json:"payload"`
	ExpectReply bool            `json:"expect_reply"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewMessage builds an envelope with the payload marshalled in place.
func NewMessage(from, to, msgType, priority string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		From:      from,
		To:        to,
		Type:      msgType,
		Priority:  priority,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// registrationPayload announces the agent and its capabilities on connect.
type registrationPayload struct {
	AgentName    string   `json:"agent_name"`
	SessionID    string   `json:"session_id"`
	Capabilities []string `json:"capabilities"`
	Status       string   `json:"status"`
}

// heartbeatPayload is the periodic liveness report.
type heartbeatPayload struct {
	Status        string  `json:"status"`
	AgentName     string  `json:"agent_name,omitempty"`
	UptimeSeconds float64 `json:"uptime,omitempty"`
}

// statusPayload mirrors pipeline progress to the task sender.
type statusPayload struct {
	PipelineID  string `json:"pipeline_id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step"`
	Message     string `json:"message"`
}

// completePayload reports a finished run.
type completePayload struct {
	PipelineID string `json:"pipeline_id"`
	Manifest   any    `json:"manifest"`
	OutputDir  string `json:"output_dir"`
	Summary    string `json:"summary"`
}

// failedPayload reports an aborted run.
type failedPayload struct {
	Error       string          `json:"error"`
	TaskPayload json.RawMessage `json:"task_payload"`
	Recoverable bool            `json:"recoverable"`
}
