package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/complaintdesk/backend/internal/models"
	"github.com/complaintdesk/backend/internal/service"
	"github.com/complaintdesk/backend/internal/store"
)

type ContactDetailsRequest struct {
	FullName         string `json:"fullName" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	PreferredContact string `json:"preferredContact" validate:"required"`
}

type ComplaintCreateRequest struct {
	OrganizationID  string                `json:"organizationId" validate:"required"`
	Title           string                `json:"title" validate:"required"`
	Description     string                `json:"description" validate:"required"`
	DesiredOutcome  string                `json:"desiredOutcome" validate:"required"`
	Contact         ContactDetailsRequest `json:"contactDetails" validate:"required"`
	IncidentDate    string                `json:"incidentDate"`
	ReferenceNumber string                `json:"referenceNumber"`
	PreviousContact string                `json:"previousContact"`
}

type ComplaintUpdateRequest struct {
	OrganizationID  *string                `json:"organizationId"`
	Title           *string                `json:"title"`
	Description     *string                `json:"description"`
	DesiredOutcome  *string                `json:"desiredOutcome"`
	Contact         *ContactDetailsRequest `json:"contactDetails"`
	IncidentDate    *string                `json:"incidentDate"`
	ReferenceNumber *string                `json:"referenceNumber"`
	PreviousContact *string                `json:"previousContact"`
	Status          *string                `json:"status"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ComplaintView decorates a complaint with its read-time facts and the
// rendered organization name.
type ComplaintView struct {
	models.Complaint
	OrganizationName string              `json:"organizationName"`
	Derived          models.DerivedFacts `json:"derived"`
}

func (h *Handler) view(c models.Complaint) ComplaintView {
	return ComplaintView{
		Complaint:        c,
		OrganizationName: h.Store.OrganizationName(c.OrganizationID),
		Derived:          h.Store.Derive(c),
	}
}

func (h *Handler) ComplaintsList(c *gin.Context) {
	filter := service.QueryFilter{
		Search:         c.Query("q"),
		Status:         models.Status(strings.TrimSpace(c.Query("status"))),
		OrganizationID: c.Query("organization_id"),
	}

	items := h.Store.Query(filter)
	if c.Query("sort") == "display" {
		h.Store.SortForDisplay(items)
	}

	views := make([]ComplaintView, 0, len(items))
	for _, item := range items {
		views = append(views, h.view(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

func (h *Handler) ComplaintDetails(c *gin.Context) {
	complaint, ok := h.Store.GetComplaint(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
		return
	}
	c.JSON(http.StatusOK, h.view(complaint))
}

// @Summary Submit complaint
// @Tags complaints
// @Accept json
// @Produce json
// @Param complaint body ComplaintCreateRequest true "complaint"
// @Success 201 {object} ComplaintView
// @Failure 400 {object} map[string]any
// @Router /api/complaints [post]
func (h *Handler) ComplaintCreate(c *gin.Context) {
	var req ComplaintCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	complaint, err := h.Store.CreateComplaint(c.Request.Context(), models.Complaint{
		OrganizationID: req.OrganizationID,
		Title:          req.Title,
		Description:    req.Description,
		DesiredOutcome: req.DesiredOutcome,
		Contact: models.ContactDetails{
			FullName:         req.Contact.FullName,
			Email:            req.Contact.Email,
			Phone:            req.Contact.Phone,
			Address:          req.Contact.Address,
			PreferredContact: req.Contact.PreferredContact,
		},
		IncidentDate:    req.IncidentDate,
		ReferenceNumber: req.ReferenceNumber,
		PreviousContact: req.PreviousContact,
	})
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(complaint))
}

func (h *Handler) ComplaintUpdate(c *gin.Context) {
	var req ComplaintUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}

	patch := store.ComplaintPatch{
		OrganizationID:  req.OrganizationID,
		Title:           req.Title,
		Description:     req.Description,
		DesiredOutcome:  req.DesiredOutcome,
		IncidentDate:    req.IncidentDate,
		ReferenceNumber: req.ReferenceNumber,
		PreviousContact: req.PreviousContact,
	}
	if req.Contact != nil {
		patch.Contact = &models.ContactDetails{
			FullName:         req.Contact.FullName,
			Email:            req.Contact.Email,
			Phone:            req.Contact.Phone,
			Address:          req.Contact.Address,
			PreferredContact: req.Contact.PreferredContact,
		}
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		if !status.Valid() {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", gin.H{"field": "status"})
			return
		}
		patch.Status = &status
	}

	complaint, err := h.Store.UpdateComplaint(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(complaint))
}

// ComplaintTransition is the explicit status-only mutation path used by the
// tracking screen's action buttons.
func (h *Handler) ComplaintTransition(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	status := models.Status(req.Status)
	if !status.Valid() {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", gin.H{"field": "status"})
		return
	}

	complaint, err := h.Store.UpdateComplaint(c.Request.Context(), c.Param("id"), store.ComplaintPatch{Status: &status})
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(complaint))
}

func (h *Handler) ComplaintDelete(c *gin.Context) {
	if err := h.Store.DeleteComplaint(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
