package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Vehicle is an entry in the authorized plates registry.
type Vehicle struct {
	ID           int         `json:"id"`
	PlateNumber  string      `json:"plate_number"` // normalized, e.g. "B767NTT"
	Category     string      `json:"category"`
	Prefix       string      `json:"prefix"`
	Number       string      `json:"number"`
	Suffix       string      `json:"suffix,omitempty"`
	IsAuthorized bool        `json:"is_authorized"`
	Source       string      `json:"source"` // "manual", "auto_prefix"
	Notes        null.String `json:"notes"`
	AddedAt      time.Time   `json:"added_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

const (
	VehicleSourceManual     = "manual"
	VehicleSourceAutoPrefix = "auto_prefix"
)

type CreateVehicleDTO struct {
	PlateNumber  string `json:"plate_number" binding:"required"`
	IsAuthorized *bool  `json:"is_authorized"` // defaults to true
	Notes        string `json:"notes,omitempty"`
}

type UpdateVehicleAuthorizationDTO struct {
	IsAuthorized *bool  `json:"is_authorized" binding:"required"`
	Notes        string `json:"notes,omitempty"`
}

type VehicleFilterDTO struct {
	Category     *string `form:"category"`
	Prefix       *string `form:"prefix"`
	IsAuthorized *bool   `form:"authorized"`
	Limit        int     `form:"limit"`
	Offset       int     `form:"offset"`
}
