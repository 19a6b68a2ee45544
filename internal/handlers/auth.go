package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/middleware"
	"github.com/Saman-dev12/civic/internal/service"
)

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	DeviceID     string       `json:"deviceId"`
	User         userResponse `json:"user"`
}

func clientInfo(c *gin.Context, deviceID, deviceName string) service.ClientInfo {
	return service.ClientInfo{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	}
}

func (h HandlerSet) RegisterCitizen(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}, clientInfo(c, req.DeviceID, req.DeviceName))
	if err != nil {
		h.respondError(c, err)
		return
	}

	sendAuthResponse(c, http.StatusCreated, result)
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(c, req.DeviceID, req.DeviceName))
	if err != nil {
		h.respondError(c, err)
		return
	}

	sendAuthResponse(c, http.StatusOK, result)
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req service.RefreshInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sendAuthResponse(c, http.StatusOK, result)
}

// Logout ends the session of the calling device.
func (h HandlerSet) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_claims"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID, claims.DeviceID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func sendAuthResponse(c *gin.Context, status int, result service.AuthResult) {
	c.JSON(status, authResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
		DeviceID:     result.DeviceID,
		User:         toUser(result.User),
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	p := lifecycle.PrincipalFromUser(user)
	caps := make([]string, 0, len(capabilityNames))
	for _, cn := range capabilityNames {
		if p.Can(cn.cap) {
			caps = append(caps, cn.name)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         toUser(user),
		"capabilities": caps,
	})
}

var capabilityNames = []struct {
	cap  lifecycle.Capability
	name string
}{
	{lifecycle.CapFileComplaint, "file_complaint"},
	{lifecycle.CapViewAllComplaints, "view_all_complaints"},
	{lifecycle.CapCreateAssignment, "create_assignment"},
	{lifecycle.CapUpdateOwnAssignment, "update_own_assignment"},
	{lifecycle.CapUpdateAnyAssignment, "update_any_assignment"},
	{lifecycle.CapOverrideBoundComplaintStatus, "override_bound_complaint_status"},
	{lifecycle.CapOverrideAnyComplaintStatus, "override_any_complaint_status"},
	{lifecycle.CapComment, "comment"},
	{lifecycle.CapViewReports, "view_reports"},
	{lifecycle.CapViewDepartmentReports, "view_department_reports"},
	{lifecycle.CapManageOfficers, "manage_officers"},
	{lifecycle.CapManageSettings, "manage_settings"},
}

type sessionResponse struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Current    bool      `json:"current"`
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_claims"})
		return
	}

	sessions, err := h.authService.Sessions(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, sessionResponse{
			ID:         session.ID,
			DeviceID:   session.DeviceID,
			DeviceName: session.DeviceName,
			IPAddress:  session.IPAddress,
			UserAgent:  session.UserAgent,
			LastSeenAt: session.LastSeenAt,
			ExpiresAt:  session.ExpiresAt,
			Current:    session.ID == claims.SessionID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": resp})
}

func (h HandlerSet) RevokeSession(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_claims"})
		return
	}

	deviceID := c.Param("deviceId")
	if claims.DeviceID == deviceID {
		badRequest(c, errors.New("cannot revoke the current device, log out instead"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID, deviceID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
