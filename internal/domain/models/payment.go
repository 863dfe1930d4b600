package models

import "time"

const (
	PaymentRazorpay = "razorpay"
	PaymentUPI      = "upi"
	PaymentManual   = "manual"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Payment struct {
	ID            int64          `json:"id"`
	BookingID     int64          `json:"booking_id"`
	UserID        int64          `json:"user_id"`
	Amount        float64        `json:"amount"`
	Method        string         `json:"method"`
	Status        string         `json:"status"`
	TransactionID string         `json:"transaction_id"`
	PaymentData   map[string]any `json:"payment_data"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type ManualPayment struct {
	ID         int64      `json:"id"`
	PaymentID  int64      `json:"payment_id"`
	Screenshot string     `json:"screenshot"`
	Verified   bool       `json:"verified"`
	VerifiedBy *int64     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RazorpayOrder is what the checkout widget needs to open.
type RazorpayOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type RazorpayVerifyInput struct {
	BookingID         int64  `json:"booking_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}
