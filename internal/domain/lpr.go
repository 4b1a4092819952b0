package domain

// LPRRequestDTO is the image upload sent by the operator UI.
type LPRRequestDTO struct {
	// base64, optionally with a data URL prefix
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// LPRCandidate is one text block returned by the OCR backend.
type LPRCandidate struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
}

// LPRResult is the outcome of running OCR text through the validator.
type LPRResult struct {
	Plate      *PlateDTO        `json:"plate,omitempty"`
	Confidence float32          `json:"confidence,omitempty"`
	Rejected   []PlateRejection `json:"rejected,omitempty"`
}

// LPRResponseDTO is returned by POST /lpr/process-image.
type LPRResponseDTO struct {
	DetectedPlate string           `json:"detected_plate"`
	Plate         *PlateDTO        `json:"plate,omitempty"`
	Confidence    float32          `json:"confidence,omitempty"`
	Rejected      []PlateRejection `json:"rejected,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`
}
