package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type bookingRef struct {
	BookingID int64 `json:"booking_id"`
}

// POST /api/payments/razorpay/create-order
func (h *Handler) CreateRazorpayOrder(c *gin.Context) {
	var req bookingRef
	if !BindJSONOrError(c, &req) {
		return
	}
	order, err := h.payments(c).CreateRazorpayOrder(middleware.UserID(c), req.BookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// POST /api/payments/razorpay/verify
func (h *Handler) VerifyRazorpay(c *gin.Context) {
	var req models.RazorpayVerifyInput
	if !BindJSONOrError(c, &req) {
		return
	}
	ok, err := h.payments(c).VerifyRazorpay(middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Payment verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /api/payments/upiqr
func (h *Handler) UPIQR(c *gin.Context) {
	var req bookingRef
	if !BindJSONOrError(c, &req) {
		return
	}
	link, err := h.payments(c).UPILink(middleware.UserID(c), req.BookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// POST /api/payments/manual-upload (multipart: booking_id, screenshot)
func (h *Handler) ManualUpload(c *gin.Context) {
	bookingID, _ := strconv.ParseInt(strings.TrimSpace(c.PostForm("booking_id")), 10, 64)
	if bookingID <= 0 {
		RespondError(c, http.StatusBadRequest, "booking_id is required", nil)
		return
	}
	fh, err := c.FormFile("screenshot")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "screenshot is required", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "screenshot could not be read", err)
		return
	}
	defer f.Close()

	if _, err := h.payments(c).SaveManualUpload(middleware.UserID(c), bookingID, fh.Filename, f); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Screenshot uploaded successfully", "booking_id": bookingID})
}

// POST /api/payments/manual/:id/verify (admin)
func (h *Handler) VerifyManualPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.payments(c).VerifyManual(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
