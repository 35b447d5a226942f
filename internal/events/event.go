// Package events defines the tagged envelope exchanged on the broker and on
// the fan-out bus, generalized from the single untagged events.Event/BaseEvent
// pair the rest of this codebase's tooling uses elsewhere: this domain needs
// five distinct, independently-shaped variants dispatched by event_type, so
// the envelope carries its variant fields directly instead of an opaque
// Payload() map.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the wire-level event_type tag.
type Type string

const (
	TypeThoughtCreated        Type = "thought_created"
	TypeThoughtProcessing     Type = "thought_processing"
	TypeThoughtAgentCompleted Type = "thought_agent_completed"
	TypeThoughtCompleted      Type = "thought_completed"
	TypeThoughtFailed         Type = "thought_failed"

	SchemaVersion = 1
)

// Event is satisfied by every envelope variant. Callers needing the common
// fields type-switch on the concrete variant and read its embedded Envelope
// field directly, since a method of the same name would collide with it.
type Event interface {
	EventType() Type
}

// Envelope holds the fields common to every variant, serialized at the top
// level of the JSON object (never nested under a "payload" key).
type Envelope struct {
	EventID       string    `json:"event_id"`
	EventType     Type      `json:"event_type"`
	SchemaVersion int       `json:"schema_version"`
	OccurredAt    time.Time `json:"occurred_at"`
	ThoughtID     uuid.UUID `json:"thought_id"`
	UserID        uuid.UUID `json:"user_id"`
}

func newEnvelope(eventType Type, thoughtID, userID uuid.UUID) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		ThoughtID:     thoughtID,
		UserID:        userID,
	}
}

// ThoughtCreated is published by the ingest handler and consumed by the
// broker consumer to start a pipeline run.
type ThoughtCreated struct {
	Envelope
	Text         string `json:"text"`
	PriorityHint string `json:"priority_hint,omitempty"`
}

func NewThoughtCreated(thoughtID, userID uuid.UUID, text, priorityHint string) ThoughtCreated {
	return ThoughtCreated{
		Envelope:     newEnvelope(TypeThoughtCreated, thoughtID, userID),
		Text:         text,
		PriorityHint: priorityHint,
	}
}

func (e ThoughtCreated) EventType() Type { return TypeThoughtCreated }

// ThoughtProcessing carries no variant fields.
type ThoughtProcessing struct {
	Envelope
}

func NewThoughtProcessing(thoughtID, userID uuid.UUID) ThoughtProcessing {
	return ThoughtProcessing{Envelope: newEnvelope(TypeThoughtProcessing, thoughtID, userID)}
}

func (e ThoughtProcessing) EventType() Type { return TypeThoughtProcessing }

// ThoughtAgentCompleted is published once per completed agent stage.
type ThoughtAgentCompleted struct {
	Envelope
	AgentName       string          `json:"agent_name"`
	AgentNumber     int             `json:"agent_number"`
	TotalAgents     int             `json:"total_agents"`
	ProgressPercent int             `json:"progress_percent"`
	AgentOutput     json.RawMessage `json:"agent_output,omitempty"`
}

func NewThoughtAgentCompleted(thoughtID, userID uuid.UUID, agentName string, agentNumber, totalAgents int, output json.RawMessage) ThoughtAgentCompleted {
	return ThoughtAgentCompleted{
		Envelope:        newEnvelope(TypeThoughtAgentCompleted, thoughtID, userID),
		AgentName:       agentName,
		AgentNumber:     agentNumber,
		TotalAgents:     totalAgents,
		ProgressPercent: (agentNumber * 100) / totalAgents,
		AgentOutput:     output,
	}
}

func (e ThoughtAgentCompleted) EventType() Type { return TypeThoughtAgentCompleted }

// ThoughtCompleted marks a pipeline run finishing successfully.
type ThoughtCompleted struct {
	Envelope
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	CacheHit              bool    `json:"cache_hit"`
}

func NewThoughtCompleted(thoughtID, userID uuid.UUID, processingTime time.Duration, cacheHit bool) ThoughtCompleted {
	return ThoughtCompleted{
		Envelope:              newEnvelope(TypeThoughtCompleted, thoughtID, userID),
		ProcessingTimeSeconds: processingTime.Seconds(),
		CacheHit:              cacheHit,
	}
}

func (e ThoughtCompleted) EventType() Type { return TypeThoughtCompleted }

// ThoughtFailed marks a pipeline run ending in a terminal failure.
type ThoughtFailed struct {
	Envelope
	ErrorKind    string `json:"error_kind"`
	ErrorMessage string `json:"error_message"`
	RetryCount   int    `json:"retry_count"`
}

func NewThoughtFailed(thoughtID, userID uuid.UUID, errorKind, errorMessage string, retryCount int) ThoughtFailed {
	return ThoughtFailed{
		Envelope:     newEnvelope(TypeThoughtFailed, thoughtID, userID),
		ErrorKind:    errorKind,
		ErrorMessage: errorMessage,
		RetryCount:   retryCount,
	}
}

func (e ThoughtFailed) EventType() Type { return TypeThoughtFailed }

// Marshal encodes any variant to its canonical JSON form.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Decode dispatches a raw JSON envelope to its concrete variant based on the
// event_type field, the Go equivalent of EVENT_TYPE_MAP/deserialize_event.
func Decode(raw []byte) (Event, error) {
	var probe struct {
		EventType     Type `json:"event_type"`
		SchemaVersion int  `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("events: decode envelope header: %w", err)
	}
	if probe.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("events: unrecognized schema_version %d", probe.SchemaVersion)
	}

	switch probe.EventType {
	case TypeThoughtCreated:
		var e ThoughtCreated
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case TypeThoughtProcessing:
		var e ThoughtProcessing
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case TypeThoughtAgentCompleted:
		var e ThoughtAgentCompleted
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case TypeThoughtCompleted:
		var e ThoughtCompleted
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case TypeThoughtFailed:
		var e ThoughtFailed
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("events: unknown event_type %q", probe.EventType)
	}
}
