package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardStats serves the staff counters to officers and admins and the
// personal counters to citizens.
func (h HandlerSet) DashboardStats(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if p.Role.Staff() {
		stats, err := h.reports.StaffDashboard(c.Request.Context(), p)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
		return
	}

	stats, err := h.reports.CitizenDashboard(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h HandlerSet) RecentComplaints(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	recent, err := h.reports.RecentComplaints(c.Request.Context(), p, queryInt(c, "limit"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": recent})
}
