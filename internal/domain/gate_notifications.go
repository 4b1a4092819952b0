// File: internal/domain/gate_notifications.go
package domain

import "time"

type GateDirection string

const (
	GateDirectionEntry GateDirection = "entry"
	GateDirectionExit  GateDirection = "exit"
)

// GateDecision is what the service decided to do with the barrier.
type GateDecision string

const (
	DecisionOpen         GateDecision = "open"
	DecisionDeny         GateDecision = "deny"
	DecisionManualReview GateDecision = "manual_review"
)

// GateEventStatus tracks a plate read from arrival to completion.
type GateEventStatus string

const (
	StatusPending        GateEventStatus = "pending"
	StatusAwaitingReview GateEventStatus = "awaiting_review"
	StatusGateOpened     GateEventStatus = "gate_opened"
	StatusDenied         GateEventStatus = "denied"
	StatusManualOverride GateEventStatus = "manual_override"
	StatusTimeout        GateEventStatus = "timeout"
	StatusError          GateEventStatus = "error"
)

// GateEventNotification is pushed to operator consoles over WebSocket.
type GateEventNotification struct {
	EventID       string          `json:"event_id"`
	DeviceID      string          `json:"device_id"`
	GateDirection GateDirection   `json:"gate_direction"`
	Status        GateEventStatus `json:"status"`
	Decision      GateDecision    `json:"decision"`
	RawText       string          `json:"raw_text"`
	Plate         *PlateDTO       `json:"plate,omitempty"`
	Rejection     *PlateRejection `json:"rejection,omitempty"`
	Confidence    float32         `json:"confidence"`
	Timestamp     time.Time       `json:"timestamp"`

	RequiresUserInput bool   `json:"requires_user_input"`
	Message           string `json:"message,omitempty"`
}

// ManualOverrideRequest lets an operator type the plate or force a decision.
type ManualOverrideRequest struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	OpenGate    bool   `json:"open_gate"`
	Notes       string `json:"notes,omitempty"`
}

// GateEventRecord is the persisted state of one plate read at a gate.
type GateEventRecord struct {
	ID               int             `json:"id"`
	EventID          string          `json:"event_id"`
	DeviceID         string          `json:"device_id"`
	GateDirection    GateDirection   `json:"gate_direction"`
	Status           GateEventStatus `json:"status"`
	RawText          string          `json:"raw_text"`
	DetectedPlate    string          `json:"detected_plate,omitempty"`
	PlateCategory    string          `json:"plate_category,omitempty"`
	RejectionKind    string          `json:"rejection_kind,omitempty"`
	LPRConfidence    *float32        `json:"lpr_confidence,omitempty"`
	Decision         GateDecision    `json:"decision,omitempty"`
	VehicleID        *int            `json:"vehicle_id,omitempty"`
	IsManualEntry    bool            `json:"is_manual_entry,omitempty"`
	ProcessingNotes  string          `json:"processing_notes,omitempty"`
	AssignedOperator string          `json:"assigned_operator,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}
