package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/complaintdesk/backend/internal/models"
)

type OrganizationRequest struct {
	Name               string `json:"name" validate:"required"`
	Type               string `json:"type"`
	ContactEmail       string `json:"contactEmail" validate:"omitempty,email"`
	ResponseTimeDays   int    `json:"responseTimeDays" validate:"required,gt=0"`
	EscalationTimeDays int    `json:"escalationTimeDays" validate:"required,gt=0"`
}

func (h *Handler) OrganizationsList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Store.ListOrganizations()})
}

func (h *Handler) OrganizationDetails(c *gin.Context) {
	org, ok := h.Store.GetOrganization(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Organization not found", nil)
		return
	}
	c.JSON(http.StatusOK, org)
}

// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body OrganizationRequest true "organization"
// @Success 201 {object} models.Organization
// @Failure 400 {object} map[string]any
// @Router /api/organizations [post]
func (h *Handler) OrganizationCreate(c *gin.Context) {
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	org, err := h.Store.CreateOrganization(c.Request.Context(), models.Organization{
		Name:               req.Name,
		Type:               req.Type,
		ContactEmail:       req.ContactEmail,
		ResponseTimeDays:   req.ResponseTimeDays,
		EscalationTimeDays: req.EscalationTimeDays,
	})
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (h *Handler) OrganizationUpdate(c *gin.Context) {
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	org, err := h.Store.UpdateOrganization(c.Request.Context(), c.Param("id"), models.Organization{
		Name:               req.Name,
		Type:               req.Type,
		ContactEmail:       req.ContactEmail,
		ResponseTimeDays:   req.ResponseTimeDays,
		EscalationTimeDays: req.EscalationTimeDays,
	})
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// OrganizationDelete removes the organization and reports how many complaints
// still reference it so the UI can warn about the dangling records.
func (h *Handler) OrganizationDelete(c *gin.Context) {
	referencing, err := h.Store.DeleteOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "complaintsReferencing": referencing})
}
