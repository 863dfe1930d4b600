package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListCampaigns(c *gin.Context) {
	out, err := h.campaigns(c).List(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCampaign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.campaigns(c).Get(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateCampaign(c *gin.Context) {
	var req services.CampaignInput
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.campaigns(c).Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// POST /api/messaging/create-campaign-send
func (h *Handler) CreateCampaignAndSend(c *gin.Context) {
	var req services.CampaignInput
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.campaigns(c).CreateAndStart(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) DeleteCampaign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.campaigns(c).Delete(middleware.UserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) StartCampaign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.campaigns(c).Start(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CampaignAction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.campaigns(c).PerformAction(c.Request.Context(), middleware.UserID(c), id, req.Action)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) GenerateCampaignReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ReportType string `json:"report_type"`
	}
	_ = c.ShouldBindJSON(&req)
	rep, err := h.campaigns(c).GenerateReport(middleware.UserID(c), id, req.ReportType)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

// GET /api/messaging/message-campaigns/:id/messages?status=
func (h *Handler) CampaignMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.campaigns(c).CampaignMessages(middleware.UserID(c), id, c.Query("status"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Messages

func (h *Handler) ListMessages(c *gin.Context) {
	out, err := h.campaigns(c).ListMessages(middleware.UserID(c), c.Query("status"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.campaigns(c).GetMessage(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) RetryMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.campaigns(c).RetryMessage(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GET /api/messaging/message-logs?message_id=
func (h *Handler) ListMessageLogs(c *gin.Context) {
	out, err := h.campaigns(c).MessageLogs(middleware.UserID(c), int64(queryInt(c, "message_id", 0)))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Reports

func (h *Handler) ListCampaignReports(c *gin.Context) {
	out, err := h.campaigns(c).Reports(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCampaignReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rep, err := h.campaigns(c).Report(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) DownloadCampaignReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rep, err := h.campaigns(c).Report(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if _, err := os.Stat(rep.FilePath); err != nil {
		RespondError(c, http.StatusNotFound, "report file not found", nil)
		return
	}
	c.FileAttachment(rep.FilePath, filepath.Base(rep.FilePath))
}

// AI-assisted messaging

func (h *Handler) PersonalizedCampaign(c *gin.Context) {
	var req services.PersonalizedInput
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.campaigns(c).CreatePersonalized(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) MessagingAIInsights(c *gin.Context) {
	out, err := h.campaigns(c).AIInsights(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AutomatedResponses(c *gin.Context) {
	out, err := h.campaigns(c).AutomatedResponses()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
