package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEnvelope(t *testing.T) {
	evt, err := NewEvent("instance-a", "note-deleted", "42")
	require.NoError(t, err)

	raw, err := Encode(evt)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "instance-a", decoded.Origin)
	assert.Equal(t, "note-deleted", decoded.EventType())
	assert.JSONEq(t, `"42"`, string(decoded.Payload()))
}

func TestDecodeRejectsIncompleteEnvelope(t *testing.T) {
	_, err := Decode([]byte(`{"type":"note-added"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
