package handlers

import (
	"net/http"

	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

// AgentChat serves /api/agents/chat/ and its aliases. Auth is optional; a
// signed-in user is attached to the stored session.
func (h *Handler) AgentChat(c *gin.Context) {
	var req services.AgentChatInput
	if !BindJSONOrError(c, &req) {
		return
	}
	var userID *int64
	if id := middleware.UserID(c); id > 0 {
		userID = &id
	}
	reply, err := h.orchestrator(c).Chat(c.Request.Context(), userID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) AgentRegistry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": h.orchestrator(c).Registry()})
}
