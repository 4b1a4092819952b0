package domain

import (
	"encoding/json"
	"time"
)

// GenericIoTEvent is decoded first to read message_type and the common fields.
type GenericIoTEvent struct {
	DeviceID          string          `json:"device_id"`
	MessageType       string          `json:"message_type"`
	Timestamp         string          `json:"timestamp"`                     // ISO 8601 UTC
	ReceivedMqttTopic string          `json:"received_mqtt_topic,omitempty"` // added by the IoT rule
	ClientIDFromIoT   string          `json:"client_id_iot,omitempty"`       // added by the IoT rule
	RawPayload        json.RawMessage `json:"-"`
}

const (
	MessageTypePlateRead    = "plate_read"
	MessageTypeBarrierState = "barrier_state"
	MessageTypeCommandAck   = "command_acknowledgement"
)

// PlateReadEvent is sent by a gate camera after OCR on a cropped plate region.
type PlateReadEvent struct {
	GenericIoTEvent
	EventID       string        `json:"event_id"`
	GateDirection GateDirection `json:"gate_direction"`
	RawText       string        `json:"raw_text"`
	Confidence    float32       `json:"confidence"` // 0-100
	CameraID      string        `json:"camera_id,omitempty"`
}

type DeviceBarrierStateEvent struct {
	GenericIoTEvent
	BarrierType  string       `json:"barrier_type"` // "entry" or "exit"
	BarrierState BarrierState `json:"barrier_state"`
	BarrierID    string       `json:"barrier_id"`
}

type DeviceCommandAckEvent struct {
	GenericIoTEvent
	Status         string `json:"status"` // "acknowledged"
	RequestID      string `json:"request_id,omitempty"`
	ReceivedAction string `json:"received_action,omitempty"`
}

// BarrierCommandPayload is published to the gate controller over MQTT.
type BarrierCommandPayload struct {
	Command   string `json:"command"` // "open" or "close"
	RequestID string `json:"request_id,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	Plate     string `json:"plate,omitempty"`
}

// DeviceEventLog is the raw inbound message as stored for auditing.
type DeviceEventLog struct {
	ID              int64           `json:"id"`
	ReceivedAt      time.Time       `json:"received_at"`
	DeviceID        string          `json:"device_id"`
	MqttTopic       string          `json:"mqtt_topic"`
	MessageType     string          `json:"message_type"`
	Payload         json.RawMessage `json:"payload"`
	ProcessedStatus string          `json:"processed_status"` // "pending", "processed", "error"
	ProcessingNotes string          `json:"processing_notes,omitempty"`
}
