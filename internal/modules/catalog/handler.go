package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"studiobooking/internal/modules/booking"
	"studiobooking/internal/pkg/response"
	"studiobooking/internal/pkg/utils"
	"studiobooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, staff *gin.RouterGroup) {
	public.GET("/studios", h.GetStudios)
	public.GET("/studios/:id", h.GetStudioByID)

	staff.POST("/studios", h.CreateStudio)
	staff.PATCH("/studios/:id", h.UpdateStudio)
	staff.DELETE("/studios/:id", h.DeleteStudio)
	staff.POST("/studios/:id/equipment", h.AddEquipment)
}

/* ---------- STUDIO HANDLERS ---------- */

// GetStudios handles GET /api/v1/studios with filters
func (h *Handler) GetStudios(c *gin.Context) {
	var q ListStudiosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if errs := validator.Validate(q); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", errs)
		return
	}

	f := ListFilter{
		MinRate:  q.MinRate,
		MaxRate:  q.MaxRate,
		Features: utils.SplitList(q.Features),
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.AvailableFrom != nil || q.AvailableTo != nil {
		if q.AvailableFrom == nil || q.AvailableTo == nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "available_from and available_to go together")
			return
		}
		f.Available = &booking.Interval{Start: q.AvailableFrom.UTC(), End: q.AvailableTo.UTC()}
	}

	studios, total, err := h.service.ListStudios(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	response.Success(c, http.StatusOK, gin.H{
		"studios": studios,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (int(total) + limit - 1) / limit,
		},
	})
}

// GetStudioByID handles GET /api/v1/studios/:id
func (h *Handler) GetStudioByID(c *gin.Context) {
	id, ok := studioID(c)
	if !ok {
		return
	}
	studio, err := h.service.GetStudio(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"studio": studio})
}

func (h *Handler) CreateStudio(c *gin.Context) {
	var req CreateStudioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	studio, err := h.service.CreateStudio(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"studio": studio})
}

func (h *Handler) UpdateStudio(c *gin.Context) {
	id, ok := studioID(c)
	if !ok {
		return
	}
	var req UpdateStudioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	studio, err := h.service.UpdateStudio(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"studio": studio})
}

func (h *Handler) DeleteStudio(c *gin.Context) {
	id, ok := studioID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteStudio(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

/* ---------- EQUIPMENT HANDLERS ---------- */

func (h *Handler) AddEquipment(c *gin.Context) {
	id, ok := studioID(c)
	if !ok {
		return
	}
	var req CreateEquipmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	eq, err := h.service.AddEquipment(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"equipment": eq})
}

func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Studio not found")
	case errors.Is(err, ErrHasActiveBookings):
		response.Error(c, http.StatusConflict, "HAS_ACTIVE_BOOKINGS", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrTransient):
		response.Error(c, http.StatusServiceUnavailable, "TRANSIENT_ERROR", "Storage unavailable, please retry")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}

func studioID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid studio ID")
		return 0, false
	}
	return id, true
}
