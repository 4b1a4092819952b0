package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

type PlateChecker interface {
	Check(raw string) domain.PlateCheckResponse
}

type VehicleRegistry interface {
	RegisterVehicle(ctx context.Context, dto domain.CreateVehicleDTO) (*domain.Vehicle, error)
	GetVehicle(ctx context.Context, rawPlate string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error)
	SetAuthorization(ctx context.Context, rawPlate string, dto domain.UpdateVehicleAuthorizationDTO) (*domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, rawPlate string) error
}

type PlateHandler struct {
	checker PlateChecker
}

func NewPlateHandler(checker PlateChecker) *PlateHandler {
	return &PlateHandler{checker: checker}
}

// POST /api/v1/plates/validate
//
// A rejected plate is still a successful request: the body says why.
func (h *PlateHandler) Validate(c *gin.Context) {
	var req domain.PlateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.checker.Check(req.Text))
}

type VehicleHandler struct {
	registry VehicleRegistry
}

func NewVehicleHandler(registry VehicleRegistry) *VehicleHandler {
	return &VehicleHandler{registry: registry}
}

// POST /api/v1/vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	var dto domain.CreateVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.registry.RegisterVehicle(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, dto.PlateNumber)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// GET /api/v1/vehicles?category=&prefix=&authorized=&limit=&offset=
func (h *VehicleHandler) List(c *gin.Context) {
	var filter domain.VehicleFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicles, err := h.registry.ListVehicles(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GET /api/v1/vehicles/:plate
func (h *VehicleHandler) Get(c *gin.Context) {
	raw := c.Param("plate")
	vehicle, err := h.registry.GetVehicle(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err, raw)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// PUT /api/v1/vehicles/:plate
func (h *VehicleHandler) UpdateAuthorization(c *gin.Context) {
	raw := c.Param("plate")
	var dto domain.UpdateVehicleAuthorizationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.registry.SetAuthorization(c.Request.Context(), raw, dto)
	if err != nil {
		respondError(c, err, raw)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// DELETE /api/v1/vehicles/:plate
func (h *VehicleHandler) Delete(c *gin.Context) {
	raw := c.Param("plate")
	if err := h.registry.DeleteVehicle(c.Request.Context(), raw); err != nil {
		respondError(c, err, raw)
		return
	}
	c.Status(http.StatusNoContent)
}
