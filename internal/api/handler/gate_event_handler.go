package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/api/middleware"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

type GateEventProcessor interface {
	HandlePlateRead(ctx context.Context, event domain.PlateReadEvent) (*domain.GateEventRecord, error)
	ManualOverride(ctx context.Context, eventID string, req domain.ManualOverrideRequest, operator string) (*domain.GateEventRecord, error)
	PendingEvents(ctx context.Context, limit int) ([]domain.GateEventRecord, error)
}

type GateEventHandler struct {
	gateService GateEventProcessor
}

func NewGateEventHandler(gateService GateEventProcessor) *GateEventHandler {
	return &GateEventHandler{gateService: gateService}
}

// PlateReadRequest is the HTTP form of a camera plate read, used by
// cameras that cannot publish over MQTT and by operators testing a gate.
type PlateReadRequest struct {
	EventID       string               `json:"event_id"`
	DeviceID      string               `json:"device_id" binding:"required"`
	GateDirection domain.GateDirection `json:"gate_direction"`
	RawText       string               `json:"raw_text"`
	Confidence    float32              `json:"confidence" binding:"gte=0,lte=100"`
	CameraID      string               `json:"camera_id"`
}

// POST /api/v1/gate-events/plate-read
func (h *GateEventHandler) PlateRead(c *gin.Context) {
	var req PlateReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	record, err := h.gateService.HandlePlateRead(c.Request.Context(), domain.PlateReadEvent{
		GenericIoTEvent: domain.GenericIoTEvent{
			DeviceID:    req.DeviceID,
			MessageType: domain.MessageTypePlateRead,
		},
		EventID:       req.EventID,
		GateDirection: req.GateDirection,
		RawText:       req.RawText,
		Confidence:    req.Confidence,
		CameraID:      req.CameraID,
	})
	if err != nil {
		respondGateError(c, err, record, req.RawText)
		return
	}
	c.JSON(http.StatusOK, record)
}

// POST /api/v1/gate-events/:event_id/override
func (h *GateEventHandler) Override(c *gin.Context) {
	var req domain.ManualOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	operator := c.GetString(middleware.UsernameKey)
	record, err := h.gateService.ManualOverride(c.Request.Context(), c.Param("event_id"), req, operator)
	if err != nil {
		respondGateError(c, err, record, req.PlateNumber)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GET /api/v1/gate-events/pending?limit=
//
// Fallback for consoles that lost their WebSocket connection.
func (h *GateEventHandler) Pending(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	events, err := h.gateService.PendingEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// respondGateError reports events that were stored with status error, for
// example after a failed barrier publish, together with the stored record.
func respondGateError(c *gin.Context, err error, record *domain.GateEventRecord, input string) {
	if record != nil && record.Status == domain.StatusError {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "event": record})
		return
	}
	respondError(c, err, input)
}
