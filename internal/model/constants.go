package model

// MessageType realtime 메시지 타입
type MessageType string

const (
	MessageJoinRoom    MessageType = "join-room"
	MessageDrawingData MessageType = "drawing-data"
	MessageCanvasData  MessageType = "canvas-data"
	MessageClearCanvas MessageType = "clear-canvas"
	MessageError       MessageType = "error"
)

func (m MessageType) String() string {
	return string(m)
}
