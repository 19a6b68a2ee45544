package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saman-dev12/civic/internal/reporting"
	"github.com/Saman-dev12/civic/internal/service"
	"github.com/Saman-dev12/civic/internal/settings"
)

func (h HandlerSet) ListOfficers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	officers, err := h.officers.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]officerResponse, 0, len(officers))
	for _, o := range officers {
		items = append(items, officerResponse{userResponse: toUser(o.User), Stats: o.Stats})
	}
	c.JSON(http.StatusOK, gin.H{"officers": items})
}

func (h HandlerSet) CreateOfficer(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.NewOfficer
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	officer, password, err := h.officers.Create(c.Request.Context(), p, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"officer":           toUser(officer),
		"temporaryPassword": password,
	})
}

func (h HandlerSet) GetOfficer(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	officer, err := h.officers.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(officer))
}

func (h HandlerSet) UpdateOfficer(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.OfficerUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	officer, err := h.officers.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(officer))
}

func (h HandlerSet) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

func (h HandlerSet) UpdateSettings(c *gin.Context) {
	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.settings.Update(c.Request.Context(), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Reports accepts startDate and endDate as YYYY-MM-DD or RFC 3339. A plain
// end date covers that whole day.
func (h HandlerSet) Reports(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var q reporting.Query
	if raw := c.Query("startDate"); raw != "" {
		start, err := parseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		q.Start = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		if len(raw) == len("2006-01-02") {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		q.End = &end
	}
	q.Department = c.Query("department")

	report, err := h.reports.Build(c.Request.Context(), p, q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
