package handler

import (
	"strconv"

	"github.com/agrirent/service-booking/internal/application"
	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/middleware"
	"github.com/agrirent/service-booking/internal/common/response"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EquipmentHandler handles HTTP requests for the equipment catalog.
type EquipmentHandler struct {
	service *application.EquipmentService
}

// NewEquipmentHandler creates a new EquipmentHandler.
func NewEquipmentHandler(service *application.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

// RegisterRoutes registers the public catalog and the owner listing routes.
func (h *EquipmentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	ownerRole := middleware.RequireRole(auth.RoleOwner, auth.RoleAdmin)

	equipment := r.Group("/api/v1/equipment")
	equipment.GET("", h.ListEquipment)
	equipment.GET("/categories", h.Categories)
	equipment.GET("/owner/my-listings", authMW, ownerRole, h.ListMyEquipment)
	equipment.GET("/:id", h.GetEquipment)

	manage := equipment.Group("")
	manage.Use(authMW, ownerRole)
	{
		manage.POST("", h.CreateEquipment)
		manage.PUT("/:id", h.UpdateEquipment)
		manage.DELETE("/:id", h.DeleteEquipment)
	}
}

// ListEquipment handles GET /api/v1/equipment.
func (h *EquipmentHandler) ListEquipment(c *gin.Context) {
	filter := equipmentDomain.Filter{
		District: c.Query("district"),
		Search:   c.Query("search"),
	}

	if category := c.Query("category"); category != "" && category != "all" {
		filter.Category = equipmentDomain.Category(category)
		if !filter.Category.IsValid() {
			response.BadRequest(c, "invalid category: "+category)
			return
		}
	}
	if available := c.Query("available"); available != "" {
		only, err := strconv.ParseBool(available)
		if err != nil {
			response.BadRequest(c, "invalid available flag")
			return
		}
		filter.AvailableOnly = only
	}

	var ok bool
	if filter.MinPrice, ok = parsePrice(c, "minPrice"); !ok {
		return
	}
	if filter.MaxPrice, ok = parsePrice(c, "maxPrice"); !ok {
		return
	}

	result, err := h.service.ListEquipment(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result, len(result))
}

// Categories handles GET /api/v1/equipment/categories.
func (h *EquipmentHandler) Categories(c *gin.Context) {
	response.Success(c, h.service.Categories())
}

// GetEquipment handles GET /api/v1/equipment/:id.
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid equipment ID")
		return
	}

	result, err := h.service.GetEquipment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyEquipment handles GET /api/v1/equipment/owner/my-listings.
func (h *EquipmentHandler) ListMyEquipment(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ListMyEquipment(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result, len(result))
}

// CreateEquipment handles POST /api/v1/equipment.
func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateEquipment(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateEquipment handles PUT /api/v1/equipment/:id.
func (h *EquipmentHandler) UpdateEquipment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid equipment ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateEquipment(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteEquipment handles DELETE /api/v1/equipment/:id.
func (h *EquipmentHandler) DeleteEquipment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid equipment ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.DeleteEquipment(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "equipment deleted"})
}

// parsePrice reads an optional non-negative price query parameter.
// It writes the error response and reports false when the value is malformed.
func parsePrice(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		response.BadRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}
