package handlers

import (
	"net/http"

	"adventurebuddha/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func respondOr(c *gin.Context, v any, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) AdminOverview(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).AdminOverview()
	respondOr(c, v, err)
}

func (h *Handler) AdminRecentBookings(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).RecentBookings()
	respondOr(c, v, err)
}

func (h *Handler) AdminTripPerformance(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).TripPerformance()
	respondOr(c, v, err)
}

func (h *Handler) AdminAgentStatus(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).AgentStatus()
	respondOr(c, v, err)
}

func (h *Handler) Activities(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).Activities()
	respondOr(c, v, err)
}

func (h *Handler) UserOverview(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).UserOverview(middleware.UserID(c))
	respondOr(c, v, err)
}

func (h *Handler) UserBookings(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).UserBookings(middleware.UserID(c))
	respondOr(c, v, err)
}

func (h *Handler) TravelInsights(c *gin.Context) {
	v, err := h.Dashboard(middleware.GetRequestID(c)).TravelInsights(middleware.UserID(c))
	respondOr(c, v, err)
}
