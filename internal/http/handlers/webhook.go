package handlers

import (
	"net/http"

	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/messaging/webhook/whatsapp
func (h *Handler) VerifyWebhook(c *gin.Context) {
	challenge, ok := h.webhook(c).Verify(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if !ok {
		c.String(http.StatusForbidden, "Verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// POST /api/messaging/webhook/whatsapp
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	var payload services.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if _, err := h.webhook(c).Handle(c.Request.Context(), payload); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
