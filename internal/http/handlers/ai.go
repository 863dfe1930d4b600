package handlers

import (
	"net/http"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

// scopeUser returns nil for admins so they see every user's rows.
func scopeUser(c *gin.Context) *int64 {
	if middleware.UserRole(c) == domain.RoleAdmin {
		return nil
	}
	id := middleware.UserID(c)
	return &id
}

func (h *Handler) ListAIAgents(c *gin.Context) {
	out, err := h.ai(c).ListAgents()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAIAgent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.ai(c).GetAgent(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateAIAgent(c *gin.Context) {
	var req models.AIAgent
	if !BindJSONOrError(c, &req) {
		return
	}
	a, err := h.ai(c).CreateAgent(middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAIAgent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AIAgent
	if !BindJSONOrError(c, &req) {
		return
	}
	a, err := h.ai(c).UpdateAgent(id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAIAgent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ai(c).DeleteAgent(id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListAIConversations(c *gin.Context) {
	out, err := h.ai(c).Conversations(scopeUser(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListSentimentAnalyses(c *gin.Context) {
	out, err := h.ai(c).Sentiments(scopeUser(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListContentGenerations(c *gin.Context) {
	out, err := h.ai(c).Contents(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) MarkContentUsed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	g, err := h.ai(c).MarkContentUsed(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// admin only
func (h *Handler) ListProcessingLogs(c *gin.Context) {
	out, err := h.ai(c).Logs(queryInt(c, "limit", 100))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AIChat(c *gin.Context) {
	var req services.AIChatInput
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.ai(c).Chat(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) RedraftMessage(c *gin.Context) {
	var req services.RedraftInput
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.ai(c).Redraft(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AnalyzeSentiment(c *gin.Context) {
	var req services.SentimentInput
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.ai(c).AnalyzeSentiment(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) BulkSentiment(c *gin.Context) {
	var req struct {
		Messages []services.BulkSentimentItem `json:"messages"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.ai(c).BulkSentiment(c.Request.Context(), middleware.UserID(c), req.Messages)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (h *Handler) GenerateContent(c *gin.Context) {
	var req services.ContentInput
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.ai(c).GenerateContent(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) EnhanceTemplate(c *gin.Context) {
	var req services.EnhanceInput
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.ai(c).EnhanceTemplate(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AIStats(c *gin.Context) {
	st, err := h.ai(c).Stats()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
