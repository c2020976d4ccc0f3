package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/autocredit/cartera-api/internal/middleware"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/services"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func (h *VehicleHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")

	vehicles, total, err := h.vehicleService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles":   vehicles,
		"pagination": pagination(query.Page, query.PerPage, total),
	})
}

type CreateVehicleRequest struct {
	Brand     string          `json:"brand" binding:"required"`
	Model     string          `json:"model" binding:"required"`
	Year      int             `json:"year"`
	Plate     string          `json:"plate"`
	VIN       string          `json:"vin"`
	Color     string          `json:"color"`
	ListPrice decimal.Decimal `json:"list_price"`
	HasGPS    bool            `json:"has_gps"`
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Marca y modelo son requeridos"})
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), middleware.GetUserID(c), services.VehicleInput{
		Brand:     req.Brand,
		Model:     req.Model,
		Year:      req.Year,
		Plate:     req.Plate,
		VIN:       req.VIN,
		Color:     req.Color,
		ListPrice: req.ListPrice,
		HasGPS:    req.HasGPS,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

func (h *VehicleHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("vehicle_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	vehicle, err := h.vehicleService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}
