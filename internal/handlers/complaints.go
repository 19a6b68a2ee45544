package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/middleware"
	"github.com/Saman-dev12/civic/internal/models"
)

func (h HandlerSet) FileComplaint(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req lifecycle.NewComplaint
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	complaint, err := h.lifecycle.FileComplaint(c.Request.Context(), p, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toComplaint(complaint))
}

type paginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func (h HandlerSet) ListComplaints(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	page, err := h.lifecycle.ListComplaints(c.Request.Context(), p, lifecycle.ListQuery{
		Status:   models.ComplaintStatus(c.Query("status")),
		Category: models.Category(c.Query("category")),
		Priority: models.Priority(c.Query("priority")),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]complaintResponse, 0, len(page.Complaints))
	for _, complaint := range page.Complaints {
		items = append(items, toComplaint(complaint))
	}
	c.JSON(http.StatusOK, gin.H{
		"complaints": items,
		"pagination": paginationResponse{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
			Pages: page.Pages,
		},
	})
}

func (h HandlerSet) GetComplaint(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	detail, err := h.lifecycle.GetComplaint(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toComplaintDetail(detail))
}

type statusRequest struct {
	Status models.ComplaintStatus `json:"status" binding:"required"`
}

func (h HandlerSet) UpdateComplaintStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	complaint, err := h.lifecycle.UpdateComplaintStatus(c.Request.Context(), p, c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toComplaint(complaint))
}

func (h HandlerSet) ListComments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	comments, err := h.lifecycle.ListComments(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": toComments(comments)})
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h HandlerSet) AddComment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.lifecycle.AddComment(c.Request.Context(), p, c.Param("id"), req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	resp := toComment(comment)
	if user, ok := middleware.CurrentUser(c); ok && resp.AuthorName == "" {
		resp.AuthorName = user.Name
	}
	c.JSON(http.StatusCreated, resp)
}
