package handlers

import (
	"net/http"
	"strings"

	"adventurebuddha/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func tripFilter(c *gin.Context) models.TripFilter {
	f := models.TripFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Featured: strings.TrimSpace(c.Query("featured")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	for _, tag := range strings.Split(c.Query("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	return f
}

// GET /api/trips
func (h *Handler) ListTrips(c *gin.Context) {
	out, err := h.trips(c).List(tripFilter(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/trips/featured
func (h *Handler) FeaturedTrips(c *gin.Context) {
	out, err := h.trips(c).Featured()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/trips/popular
func (h *Handler) PopularTrips(c *gin.Context) {
	out, err := h.trips(c).Popular()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/trips/:slug
func (h *Handler) GetTrip(c *gin.Context) {
	t, err := h.trips(c).GetPublished(c.Param("slug"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/trips/:slug/availability
func (h *Handler) TripAvailability(c *gin.Context) {
	out, err := h.trips(c).Availability(c.Param("slug"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/trips/slots/:id
func (h *Handler) GetSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.trips(c).Slot(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /api/trips/slots/:id/seatmap
func (h *Handler) GetSeatMap(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.trips(c).SeatMapView(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/trips
func (h *Handler) CreateTrip(c *gin.Context) {
	var req models.Trip
	if !BindJSONOrError(c, &req) {
		return
	}
	t, err := h.trips(c).Create(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// PUT /api/trips/:id
func (h *Handler) UpdateTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.Trip
	if !BindJSONOrError(c, &req) {
		return
	}
	t, err := h.trips(c).Update(id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/trips/:id
func (h *Handler) DeleteTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.trips(c).Delete(id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/trips/:id/slots
func (h *Handler) CreateSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.TripSlot
	if !BindJSONOrError(c, &req) {
		return
	}
	s, err := h.trips(c).CreateSlot(id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// PUT /api/trips/slots/:id/seatmap
func (h *Handler) PutSeatMap(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.SeatMap
	if !BindJSONOrError(c, &req) {
		return
	}
	m, err := h.trips(c).PutSeatMap(id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
