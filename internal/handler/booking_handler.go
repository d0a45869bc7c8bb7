package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/agrirent/service-booking/internal/application"
	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/middleware"
	"github.com/agrirent/service-booking/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
	limiter middleware.KeyLimiter
	logger  *zap.Logger
}

// NewBookingHandler creates a new BookingHandler. A nil limiter disables the
// per-farmer request quota.
func NewBookingHandler(service *application.BookingService, limiter middleware.KeyLimiter, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, limiter: limiter, logger: logger}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.GET("/check-availability/:equipmentId", h.CheckAvailability)

	authed := bookings.Group("")
	authed.Use(authMW)
	{
		authed.POST("",
			middleware.RequireRole(auth.RoleFarmer),
			middleware.ActorRateLimitMiddleware(h.limiter, h.logger),
			h.CreateBooking,
		)
		authed.GET("/my-bookings", h.ListMyBookings)
		authed.GET("/owner-bookings", middleware.RequireRole(auth.RoleOwner, auth.RoleAdmin), h.ListOwnerBookings)
		authed.GET("/:id", h.GetBooking)
		authed.PUT("/:id/status", h.UpdateStatus)
		authed.PUT("/:id/payment-status", middleware.RequireRole(auth.RoleOwner, auth.RoleAdmin), h.UpdatePaymentStatus)
	}
}

type createBookingBody struct {
	EquipmentID string   `json:"equipment_id" binding:"required"`
	StartDate   string   `json:"start_date" binding:"required"`
	EndDate     string   `json:"end_date" binding:"required"`
	Usage       *float64 `json:"usage"`
	FarmerNotes string   `json:"farmer_notes" binding:"max=500"`
}

type updateStatusBody struct {
	Status     string `json:"status" binding:"required"`
	OwnerNotes string `json:"owner_notes" binding:"max=500"`
}

type updatePaymentBody struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body createBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	equipmentID, err := uuid.Parse(body.EquipmentID)
	if err != nil {
		response.BadRequest(c, "invalid equipment ID")
		return
	}
	start, err := parseDate(body.StartDate)
	if err != nil {
		response.BadRequest(c, "invalid start_date")
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		response.BadRequest(c, "invalid end_date")
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor, application.CreateBookingRequest{
		EquipmentID: equipmentID,
		StartDate:   start,
		EndDate:     end,
		Usage:       body.Usage,
		FarmerNotes: body.FarmerNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CheckAvailability handles GET /api/v1/bookings/check-availability/:equipmentId.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	equipmentID, err := uuid.Parse(c.Param("equipmentId"))
	if err != nil {
		response.BadRequest(c, "invalid equipment ID")
		return
	}

	startParam, endParam := c.Query("startDate"), c.Query("endDate")
	if startParam == "" || endParam == "" {
		response.BadRequest(c, "startDate and endDate are required")
		return
	}
	start, err := parseDate(startParam)
	if err != nil {
		response.BadRequest(c, "invalid startDate")
		return
	}
	end, err := parseDate(endParam)
	if err != nil {
		response.BadRequest(c, "invalid endDate")
		return
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), equipmentID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyBookings handles GET /api/v1/bookings/my-bookings.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ListFarmerBookings(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result, len(result))
}

// ListOwnerBookings handles GET /api/v1/bookings/owner-bookings.
func (h *BookingHandler) ListOwnerBookings(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ListOwnerBookings(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result, len(result))
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetBookingByID(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PUT /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body updateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBookingStatus(c.Request.Context(), actor, bookingID, application.UpdateStatusRequest{
		Status:     body.Status,
		OwnerNotes: body.OwnerNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePaymentStatus handles PUT /api/v1/bookings/:id/payment-status.
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body updatePaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePaymentStatus(c.Request.Context(), actor, bookingID, body.PaymentStatus)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
