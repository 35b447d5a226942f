package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTripsAllVariants(t *testing.T) {
	thoughtID, userID := uuid.New(), uuid.New()

	variants := []Event{
		NewThoughtCreated(thoughtID, userID, "buy a new standing desk", "high"),
		NewThoughtProcessing(thoughtID, userID),
		NewThoughtAgentCompleted(thoughtID, userID, "classification", 1, 5, []byte(`{"category":"purchase"}`)),
		NewThoughtCompleted(thoughtID, userID, 1500000000, false),
		NewThoughtFailed(thoughtID, userID, "permanent/content_policy", "blocked", 3),
	}

	for _, v := range variants {
		raw, err := Marshal(v)
		require.NoError(t, err)

		decoded, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, v.EventType(), decoded.EventType())

		raw2, err := Marshal(decoded)
		require.NoError(t, err)
		assert.JSONEq(t, string(raw), string(raw2))
	}
}

func TestDecode_RejectsUnrecognizedSchemaVersion(t *testing.T) {
	raw := []byte(`{"event_type":"thought_created","schema_version":99}`)
	_, err := Decode(raw)
	assert.ErrorContains(t, err, "unrecognized schema_version")
}

func TestDecode_RejectsUnknownEventType(t *testing.T) {
	raw := []byte(`{"event_type":"thought_teleported","schema_version":1}`)
	_, err := Decode(raw)
	assert.ErrorContains(t, err, "unknown event_type")
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewThoughtAgentCompleted_ComputesProgressPercent(t *testing.T) {
	e := NewThoughtAgentCompleted(uuid.New(), uuid.New(), "prioritization", 5, 5, nil)
	assert.Equal(t, 100, e.ProgressPercent)

	e2 := NewThoughtAgentCompleted(uuid.New(), uuid.New(), "analysis", 2, 5, nil)
	assert.Equal(t, 40, e2.ProgressPercent)
}

func TestEnvelope_CarriesIdentity(t *testing.T) {
	thoughtID, userID := uuid.New(), uuid.New()
	e := NewThoughtFailed(thoughtID, userID, "permanent/invariant", "oops", 1)
	assert.Equal(t, thoughtID, e.Envelope.ThoughtID)
	assert.Equal(t, userID, e.Envelope.UserID)
	assert.Equal(t, SchemaVersion, e.Envelope.SchemaVersion)
	assert.NotEmpty(t, e.Envelope.EventID)
}
