package handlers

import (
	"errors"
	"net/http"

	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

type lockSeatsRequest struct {
	SlotID  int64    `json:"slot_id"`
	SeatIDs []string `json:"seat_ids"`
}

// POST /api/bookings/lock_seats
func (h *Handler) LockSeats(c *gin.Context) {
	var req lockSeatsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.seats(c)
	lock, err := svc.Lock(c.Request.Context(), middleware.UserID(c), req.SlotID, req.SeatIDs)
	if err != nil {
		var conflict services.SeatConflict
		if errors.As(err, &conflict) {
			respondError(c, http.StatusBadRequest, "seats_unavailable", err.Error(), gin.H{"seats": conflict.Seats})
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lock_token": lock.LockToken,
		"expires_in": int(lock.ExpiresAt.Sub(lock.CreatedAt).Seconds()),
	})
}

// POST /api/bookings/unlock_seats
func (h *Handler) UnlockSeats(c *gin.Context) {
	var req struct {
		LockToken string `json:"lock_token"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := h.seats(c).Unlock(c.Request.Context(), middleware.UserID(c), req.LockToken); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": true})
}

// POST /api/bookings/create_booking
func (h *Handler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.bookings(c).Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /api/bookings
func (h *Handler) ListBookings(c *gin.Context) {
	out, err := h.bookings(c).List(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings(c).Get(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings(c).Cancel(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings/:id/rate
func (h *Handler) RateBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.bookings(c).Rate(middleware.UserID(c), id, req.Rating)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings/:id/invoice
func (h *Handler) BookingInvoice(c *gin.Context) {
	h.bookingPDF(c, services.DocsService.GenerateInvoice)
}

// GET /api/bookings/:id/e-ticket
func (h *Handler) BookingETicket(c *gin.Context) {
	h.bookingPDF(c, services.DocsService.GenerateETicket)
}

func (h *Handler) bookingPDF(c *gin.Context, gen func(services.DocsService, int64, int64) ([]byte, string, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pdfBytes, filename, err := gen(h.docs(c), middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
