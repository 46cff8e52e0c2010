package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"whiteboard-backend/internal/model"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownType    = errors.New("unknown message type")
)

// envelope 모든 프레임의 공통 형태
type envelope struct {
	Type    model.MessageType `json:"type"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

// Inbound is one decoded client message. Exactly one of the concrete types below.
type Inbound interface {
	Type() model.MessageType
	Code() string
}

type JoinRoom struct {
	RoomCode string
}

type DrawingData struct {
	RoomCode string
	Stroke   Stroke
}

// Stroke 선분 하나. Relayed to peers without the room code.
type Stroke struct {
	PrevX    float64 `json:"prevX"`
	PrevY    float64 `json:"prevY"`
	CurrentX float64 `json:"currentX"`
	CurrentY float64 `json:"currentY"`
	Color    string  `json:"color"`
	Size     float64 `json:"size"`
	Tool     string  `json:"tool"`
}

type CanvasData struct {
	RoomCode  string
	ImageData string
}

type ClearCanvas struct {
	RoomCode string
}

func (JoinRoom) Type() model.MessageType    { return model.MessageJoinRoom }
func (DrawingData) Type() model.MessageType { return model.MessageDrawingData }
func (CanvasData) Type() model.MessageType  { return model.MessageCanvasData }
func (ClearCanvas) Type() model.MessageType { return model.MessageClearCanvas }

func (m JoinRoom) Code() string    { return m.RoomCode }
func (m DrawingData) Code() string { return m.RoomCode }
func (m CanvasData) Code() string  { return m.RoomCode }
func (m ClearCanvas) Code() string { return m.RoomCode }

// wire shapes with pointer fields so missing members are detectable
type drawingWire struct {
	RoomCode string   `json:"roomCode"`
	PrevX    *float64 `json:"prevX"`
	PrevY    *float64 `json:"prevY"`
	CurrentX *float64 `json:"currentX"`
	CurrentY *float64 `json:"currentY"`
	Color    *string  `json:"color"`
	Size     *float64 `json:"size"`
	Tool     *string  `json:"tool"`
}

type canvasWire struct {
	RoomCode  string  `json:"roomCode"`
	ImageData *string `json:"imageData"`
}

type codeWire struct {
	RoomCode string `json:"roomCode"`
}

// Decode parses a client frame into its tagged variant.
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Type {
	case model.MessageJoinRoom:
		code, err := decodeCode(env.Payload)
		if err != nil {
			return nil, err
		}
		return JoinRoom{RoomCode: code}, nil

	case model.MessageClearCanvas:
		code, err := decodeCode(env.Payload)
		if err != nil {
			return nil, err
		}
		return ClearCanvas{RoomCode: code}, nil

	case model.MessageDrawingData:
		var w drawingWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return nil, fmt.Errorf("%w: drawing-data: %v", ErrMalformedFrame, err)
		}
		if w.PrevX == nil || w.PrevY == nil || w.CurrentX == nil || w.CurrentY == nil ||
			w.Color == nil || w.Size == nil || w.Tool == nil {
			return nil, fmt.Errorf("%w: drawing-data is missing fields", ErrMalformedFrame)
		}
		return DrawingData{
			RoomCode: w.RoomCode,
			Stroke: Stroke{
				PrevX:    *w.PrevX,
				PrevY:    *w.PrevY,
				CurrentX: *w.CurrentX,
				CurrentY: *w.CurrentY,
				Color:    *w.Color,
				Size:     *w.Size,
				Tool:     *w.Tool,
			},
		}, nil

	case model.MessageCanvasData:
		var w canvasWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return nil, fmt.Errorf("%w: canvas-data: %v", ErrMalformedFrame, err)
		}
		if w.ImageData == nil {
			return nil, fmt.Errorf("%w: canvas-data is missing imageData", ErrMalformedFrame)
		}
		return CanvasData{RoomCode: w.RoomCode, ImageData: *w.ImageData}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// decodeCode accepts "ABC123", {"roomCode":"ABC123"} or no payload.
func decodeCode(payload json.RawMessage) (string, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return "", nil
	}
	var code string
	if err := json.Unmarshal(payload, &code); err == nil {
		return code, nil
	}
	var w codeWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return "", fmt.Errorf("%w: room code payload", ErrMalformedFrame)
	}
	return w.RoomCode, nil
}

type canvasPayload struct {
	ImageData string `json:"imageData"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func encode(t model.MessageType, payload any) []byte {
	env := struct {
		Type    model.MessageType `json:"type"`
		Payload any               `json:"payload,omitempty"`
	}{Type: t, Payload: payload}
	b, _ := json.Marshal(env)
	return b
}

// EncodeDrawing drawing-data frame for peers
func EncodeDrawing(s Stroke) []byte {
	return encode(model.MessageDrawingData, s)
}

// EncodeCanvas canvas-data frame
func EncodeCanvas(imageData string) []byte {
	return encode(model.MessageCanvasData, canvasPayload{ImageData: imageData})
}

// EncodeClear clear-canvas frame, no payload
func EncodeClear() []byte {
	return encode(model.MessageClearCanvas, nil)
}

// EncodeError error frame
func EncodeError(msg string) []byte {
	return encode(model.MessageError, errorPayload{Message: msg})
}
