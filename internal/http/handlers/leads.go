package handlers

import (
	"net"
	"net/http"
	"strings"

	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

// clientIP prefers the first X-Forwarded-For entry over the socket address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// POST /api/leads
func (h *Handler) CaptureLead(c *gin.Context) {
	var req services.LeadInput
	if !BindJSONOrError(c, &req) {
		return
	}
	lead, err := h.leads(c).Capture(req, clientIP(c), c.GetHeader("User-Agent"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Lead captured successfully! We'll contact you within 24 hours.",
		"lead_id": lead.ID,
		"data":    lead,
	})
}

// GET /api/leads
func (h *Handler) ListLeads(c *gin.Context) {
	out, err := h.leads(c).List(c.Query("status"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/leads/recent
func (h *Handler) RecentLeads(c *gin.Context) {
	out, err := h.leads(c).Recent(queryInt(c, "limit", 10))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/leads/stats
func (h *Handler) LeadStats(c *gin.Context) {
	st, err := h.leads(c).Stats()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lead, err := h.leads(c).Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// POST /api/leads/:id/update_status
func (h *Handler) UpdateLeadStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	lead, err := h.leads(c).UpdateStatus(id, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// POST /api/leads/:id/add_note
func (h *Handler) AddLeadNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	lead, err := h.leads(c).AddNote(id, req.Note)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}
