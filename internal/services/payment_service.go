package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/events"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

// PaymentService handles the Razorpay, UPI and manual payment flows.
type PaymentService struct {
	Payments          repositories.PaymentRepository
	Bookings          repositories.BookingRepository
	Events            events.Publisher
	RazorpayKeyID     string
	RazorpayKeySecret string
	UPIVPA            string
	UPIPayeeName      string
	UploadDir         string
	RequestID         string
	Now               clock
	NewOrderID        func() string
}

var errNotAwaitingPayment = domain.ValidationError{Msg: "Booking is not awaiting payment"}

var allowedScreenshotExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".pdf": true}

// booking loads a booking owned by the caller for a payment request.
func (s PaymentService) booking(userID, bookingID int64) (models.Booking, error) {
	if bookingID <= 0 {
		return models.Booking{}, domain.ValidationError{Msg: "booking_id is required"}
	}
	b, err := s.Bookings.GetForUser(bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, domain.ValidationError{Msg: "Invalid booking_id"}
		}
		return b, repoErr("booking", err)
	}
	return b, nil
}

func (s PaymentService) orderID() string {
	if s.NewOrderID != nil {
		return s.NewOrderID()
	}
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func (s PaymentService) CreateRazorpayOrder(userID, bookingID int64) (models.RazorpayOrder, error) {
	b, err := s.booking(userID, bookingID)
	if err != nil {
		return models.RazorpayOrder{}, err
	}
	order := models.RazorpayOrder{
		OrderID:  s.orderID(),
		Amount:   utils.ToPaise(b.Amount),
		Currency: "INR",
		KeyID:    s.RazorpayKeyID,
	}
	_, err = s.Payments.UpsertPending(models.Payment{
		BookingID:     b.ID,
		UserID:        userID,
		Amount:        b.Amount,
		Method:        models.PaymentRazorpay,
		TransactionID: order.OrderID,
		PaymentData:   map[string]any{"razorpay_order_id": order.OrderID},
	})
	if err != nil {
		return order, repoErr("payment", err)
	}
	utils.LogEvent(s.RequestID, "payments", "razorpay_order", fmt.Sprintf("booking_id=%d order_id=%s", b.ID, order.OrderID))
	return order, nil
}

// RazorpaySignature is hex(HMAC-SHA256(order_id|payment_id)) under secret.
func RazorpaySignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRazorpay checks the checkout signature and, when it matches, confirms
// the booking. Only a pending_payment booking can be confirmed, and only with
// the order id stored by CreateRazorpayOrder. Without a configured secret
// every signature is accepted.
func (s PaymentService) VerifyRazorpay(userID int64, in models.RazorpayVerifyInput) (bool, error) {
	b, err := s.booking(userID, in.BookingID)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(in.RazorpayOrderID) == "" || strings.TrimSpace(in.RazorpayPaymentID) == "" {
		return false, domain.ValidationError{Msg: "razorpay_order_id and razorpay_payment_id are required"}
	}
	if b.Status != models.BookingPendingPayment {
		return false, errNotAwaitingPayment
	}

	p, err := s.Payments.GetByBooking(b.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows) && s.RazorpayKeySecret == "":
		id, uerr := s.Payments.UpsertPending(models.Payment{
			BookingID: b.ID, UserID: userID, Amount: b.Amount, Method: models.PaymentRazorpay,
			TransactionID: in.RazorpayOrderID,
		})
		if uerr != nil {
			return false, repoErr("payment", uerr)
		}
		p = models.Payment{ID: id, BookingID: b.ID, TransactionID: in.RazorpayOrderID}
	case errors.Is(err, sql.ErrNoRows):
		utils.LogEvent(s.RequestID, "payments", "razorpay_order_unknown", fmt.Sprintf("booking_id=%d", b.ID))
		return false, nil
	case err != nil:
		return false, repoErr("payment", err)
	}

	// Only the order stored for this booking may confirm it.
	if p.TransactionID != in.RazorpayOrderID && (p.TransactionID != "" || s.RazorpayKeySecret != "") {
		utils.LogEvent(s.RequestID, "payments", "razorpay_order_mismatch", fmt.Sprintf("booking_id=%d", b.ID))
		return false, nil
	}
	if s.RazorpayKeySecret != "" {
		want := RazorpaySignature(s.RazorpayKeySecret, in.RazorpayOrderID, in.RazorpayPaymentID)
		if !hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(in.RazorpaySignature)))) {
			if err := s.Payments.MarkFailed(p.ID); err != nil {
				utils.LogEvent(s.RequestID, "payments", "mark_failed_error", err.Error())
			}
			utils.LogEvent(s.RequestID, "payments", "razorpay_signature_mismatch", fmt.Sprintf("booking_id=%d", b.ID))
			return false, nil
		}
	}

	data := map[string]any{
		"razorpay_order_id":   in.RazorpayOrderID,
		"razorpay_payment_id": in.RazorpayPaymentID,
		"stub":                s.RazorpayKeySecret == "",
	}
	if err := s.Payments.Complete(p.ID, b.ID, in.RazorpayPaymentID, data); err != nil {
		if errors.Is(err, repositories.ErrBookingNotPending) {
			return false, errNotAwaitingPayment
		}
		return false, repoErr("payment", err)
	}
	utils.LogEvent(s.RequestID, "payments", "razorpay_verified", fmt.Sprintf("booking_id=%d", b.ID))
	s.emitCompleted(userID, b, models.PaymentRazorpay)
	return true, nil
}

func (s PaymentService) emitCompleted(userID int64, b models.Booking, method string) {
	events.Emit(s.Events, s.RequestID, events.New(events.PaymentCompleted, userID,
		"Payment received", fmt.Sprintf("%s paid for booking #%d via %s", utils.FormatINR(b.Amount), b.ID, method),
		map[string]any{"booking_id": b.ID, "amount": b.Amount, "method": method}))
}

type UPILink struct {
	Link   string  `json:"upi_link"`
	Amount float64 `json:"amount"`
}

func (s PaymentService) UPILink(userID, bookingID int64) (UPILink, error) {
	b, err := s.booking(userID, bookingID)
	if err != nil {
		return UPILink{}, err
	}
	payee := strings.ReplaceAll(s.UPIPayeeName, " ", "+")
	link := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=INR", s.UPIVPA, payee, b.Amount)
	return UPILink{Link: link, Amount: b.Amount}, nil
}

// SaveManualUpload stores a payment screenshot and records a pending manual
// payment for the booking.
func (s PaymentService) SaveManualUpload(userID, bookingID int64, filename string, src io.Reader) (string, error) {
	b, err := s.booking(userID, bookingID)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedScreenshotExt[ext] {
		return "", domain.ValidationError{Field: "screenshot", Msg: "unsupported file type"}
	}

	dir := filepath.Join(s.UploadDir, "payments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.InternalError{Err: err}
	}
	path := filepath.Join(dir, fmt.Sprintf("%d_%s%s", b.ID, uuid.NewString(), ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", domain.InternalError{Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", domain.InternalError{Err: err}
	}
	if err := dst.Close(); err != nil {
		return "", domain.InternalError{Err: err}
	}

	paymentID, err := s.Payments.UpsertPending(models.Payment{
		BookingID:   b.ID,
		UserID:      userID,
		Amount:      b.Amount,
		Method:      models.PaymentManual,
		PaymentData: map[string]any{"screenshot": filepath.Base(path)},
	})
	if err != nil {
		return "", repoErr("payment", err)
	}
	if _, err := s.Payments.CreateManual(paymentID, path); err != nil {
		return "", repoErr("payment", err)
	}
	utils.LogEvent(s.RequestID, "payments", "manual_upload", fmt.Sprintf("booking_id=%d payment_id=%d", b.ID, paymentID))
	return path, nil
}

// VerifyManual approves a manual upload on behalf of an admin.
func (s PaymentService) VerifyManual(adminID, manualID int64) (models.ManualPayment, error) {
	m, bookingID, err := s.Payments.ManualWithBooking(manualID)
	if err != nil {
		return m, repoErr("manual payment", err)
	}
	if m.Verified {
		return m, domain.ConflictError{Resource: "manual payment", Msg: "already verified"}
	}
	at := s.Now.now()
	if err := s.Payments.VerifyManual(m, bookingID, adminID, at); err != nil {
		if errors.Is(err, repositories.ErrBookingNotPending) {
			return m, errNotAwaitingPayment
		}
		return m, repoErr("manual payment", err)
	}
	m.Verified = true
	m.VerifiedBy = &adminID
	m.VerifiedAt = &at
	utils.LogEvent(s.RequestID, "payments", "manual_verified", fmt.Sprintf("manual_id=%d booking_id=%d", manualID, bookingID))

	if b, err := s.Bookings.GetByID(bookingID); err == nil {
		s.emitCompleted(b.UserID, b, models.PaymentManual)
	}
	return m, nil
}
