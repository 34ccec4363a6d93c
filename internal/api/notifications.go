package api

import (
	"net/http"

	"fulfillment/internal/auth"
	"fulfillment/internal/service"

	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the operator test email
type NotificationHandler struct {
	notifications *service.NotificationService
	verifier      *auth.Verifier
	internalKey   string
}

func NewNotificationHandler(notifications *service.NotificationService, verifier *auth.Verifier, internalKey string) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, verifier: verifier, internalKey: internalKey}
}

type testEmailRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body"`
}

func (h *NotificationHandler) SetupRoutes(r gin.IRouter) {
	r.POST("/v1/notifications/test-email", RequireAdminOrInternal(h.verifier, h.internalKey), h.testEmail)
}

func (h *NotificationHandler) testEmail(c *gin.Context) {
	var req testEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.notifications.SendTestEmail(c.Request.Context(), req.To, req.Subject, req.Body); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}
