package domain

import (
	"errors"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/plate"
)

// PlateCheckRequest is the body of POST /plates/validate.
type PlateCheckRequest struct {
	Text string `json:"text"`
}

// PlateDTO is the JSON shape of a validated plate.
type PlateDTO struct {
	Plate    string `json:"plate"`
	Category string `json:"category"`
	Prefix   string `json:"prefix"`
	Number   string `json:"number"`
	Suffix   string `json:"suffix,omitempty"`
}

// PlateRejection explains why a candidate was not accepted.
type PlateRejection struct {
	Input     string `json:"input"`
	ErrorKind string `json:"error_kind"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
}

// PlateCheckResponse carries exactly one of Plate or Rejection.
type PlateCheckResponse struct {
	Valid     bool            `json:"valid"`
	Plate     *PlateDTO       `json:"plate,omitempty"`
	Rejection *PlateRejection `json:"rejection,omitempty"`
}

func NewPlateDTO(p plate.Plate) *PlateDTO {
	return &PlateDTO{
		Plate:    p.String(),
		Category: string(p.Category()),
		Prefix:   p.Prefix(),
		Number:   p.Number(),
		Suffix:   p.Suffix(),
	}
}

// NewPlateRejection describes err for API consumers. Errors that did not come
// from the validator are reported with kind "internal".
func NewPlateRejection(input string, err error) *PlateRejection {
	var ve *plate.ValidationError
	if !errors.As(err, &ve) {
		return &PlateRejection{Input: input, ErrorKind: "internal", Message: err.Error()}
	}
	return &PlateRejection{
		Input:     input,
		ErrorKind: string(ve.Kind),
		Stage:     string(ve.Stage),
		Message:   ve.Error(),
	}
}
