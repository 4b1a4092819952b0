package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

var errEmptyImage = errors.New("empty image")

type PlateRecognizer interface {
	Recognize(ctx context.Context, image []byte) (*domain.LPRResult, error)
}

type LPRHandler struct {
	recognizer PlateRecognizer
	logger     zerolog.Logger
}

func NewLPRHandler(recognizer PlateRecognizer, logger zerolog.Logger) *LPRHandler {
	return &LPRHandler{recognizer: recognizer, logger: logger}
}

// POST /api/v1/lpr/process-image
func (h *LPRHandler) ProcessImage(c *gin.Context) {
	var req domain.LPRRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid payload: "+err.Error()))
		return
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid image data: "+err.Error()))
		return
	}

	result, err := h.recognizer.Recognize(c.Request.Context(), image)
	if err != nil {
		h.logger.Error().Err(err).Int("bytes", len(image)).Msg("plate recognition failed")
		respondError(c, err, "")
		return
	}

	resp := domain.LPRResponseDTO{Rejected: result.Rejected}
	if result.Plate == nil {
		resp.ErrorMessage = "no valid plate detected"
	} else {
		resp.DetectedPlate = result.Plate.Plate
		resp.Plate = result.Plate
		resp.Confidence = result.Confidence
	}
	c.JSON(http.StatusOK, resp)
}

// decodeImage accepts raw base64 or a data URL ("data:image/jpeg;base64,...").
func decodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		_, payload, found := strings.Cut(encoded, ",")
		if !found {
			return nil, errors.New("data URL without payload")
		}
		encoded = payload
	}

	image, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, errEmptyImage
	}
	return image, nil
}
