package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_JoinRoomPayloadShapes(t *testing.T) {
	for _, raw := range []string{
		`{"type":"join-room","payload":"abc123"}`,
		`{"type":"join-room","payload":{"roomCode":"abc123"}}`,
	} {
		msg, err := Decode([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, JoinRoom{RoomCode: "abc123"}, msg)
	}
}

func TestDecode_ClearCanvasWithoutPayload(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"clear-canvas"}`))
	require.NoError(t, err)
	assert.Equal(t, ClearCanvas{}, msg)
}

func TestDecode_DrawingData(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"drawing-data","payload":{"roomCode":"ABC123","prevX":0,"prevY":0,"currentX":10.5,"currentY":10,"color":"#000","size":2,"tool":"pen"}}`))
	require.NoError(t, err)

	d, ok := msg.(DrawingData)
	require.True(t, ok)
	assert.Equal(t, "ABC123", d.Code())
	assert.Equal(t, 10.5, d.Stroke.CurrentX)
	assert.Equal(t, "pen", d.Stroke.Tool)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]error{
		`nope`: ErrMalformedFrame,
		`{"payload":"x"}`: ErrMalformedFrame,
		`{"type":"dance"}`: ErrUnknownType,
		`{"type":"drawing-data","payload":{"prevX":0}}`:                ErrMalformedFrame,
		`{"type":"drawing-data","payload":{"prevX":"0","prevY":0}}`:    ErrMalformedFrame,
		`{"type":"canvas-data","payload":{"roomCode":"ABC123"}}`:       ErrMalformedFrame,
		`{"type":"join-room","payload":42}`:                            ErrMalformedFrame,
	}
	for raw, want := range cases {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, want, raw)
	}
}

func TestEncode(t *testing.T) {
	assert.JSONEq(t, `{"type":"clear-canvas"}`, string(EncodeClear()))
	assert.JSONEq(t, `{"type":"canvas-data","payload":{"imageData":"X"}}`, string(EncodeCanvas("X")))
	assert.JSONEq(t, `{"type":"error","payload":{"message":"boom"}}`, string(EncodeError("boom")))

	var m map[string]any
	require.NoError(t, json.Unmarshal(EncodeDrawing(Stroke{CurrentX: 10, Color: "#000", Size: 2, Tool: "pen"}), &m))
	assert.NotContains(t, m["payload"], "roomCode")
}
