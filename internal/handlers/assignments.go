package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

func (h HandlerSet) ListAssignments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	assignments, err := h.lifecycle.ListAssignments(c.Request.Context(), p, models.AssignmentFilter{
		OfficerID:  c.Query("officerId"),
		Department: c.Query("department"),
		Status:     models.AssignmentStatus(c.Query("status")),
		Priority:   models.Priority(c.Query("priority")),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": toAssignmentDetails(assignments)})
}

type createAssignmentRequest struct {
	ComplaintID string          `json:"complaintId" binding:"required"`
	OfficerID   string          `json:"officerId" binding:"required"`
	Priority    models.Priority `json:"priority"`
	DueDate     *date           `json:"dueDate"`
	Notes       string          `json:"notes"`
}

func (h HandlerSet) CreateAssignment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	assignment, err := h.lifecycle.CreateAssignment(c.Request.Context(), p, lifecycle.NewAssignment{
		ComplaintID: req.ComplaintID,
		OfficerID:   req.OfficerID,
		Priority:    req.Priority,
		DueDate:     req.DueDate.ptr(),
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssignment(assignment))
}

type updateAssignmentRequest struct {
	Status   *models.AssignmentStatus `json:"status"`
	Notes    *string                  `json:"notes"`
	Priority *models.Priority         `json:"priority"`
	DueDate  *date                    `json:"dueDate"`
}

func (h HandlerSet) UpdateAssignment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req updateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	assignment, err := h.lifecycle.UpdateAssignment(c.Request.Context(), p, c.Param("id"), lifecycle.AssignmentUpdate{
		Status:   req.Status,
		Notes:    req.Notes,
		Priority: req.Priority,
		DueDate:  req.DueDate.ptr(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssignment(assignment))
}
