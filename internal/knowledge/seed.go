package knowledge

import (
	"fmt"
	"strconv"
	"strings"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/utils"
)

// FAQChunks is the static help text served to the FAQ and policy agents.
func FAQChunks() []Chunk {
	entries := []struct{ id, title, text string }{
		{"booking", "How do I book a trip?", "Pick a trip, choose a date slot, select seats on the seat map and pay within 5 minutes while the seats are held for you. Bookings stay pending until payment is confirmed."},
		{"payment-methods", "Which payment methods are accepted?", "Razorpay (cards, net banking, UPI, wallets), UPI QR code and bank transfer with a screenshot upload. Full payment is required to confirm a booking."},
		{"cancellation", "What is the cancellation policy?", "Cancel 30 or more days before travel for a 90% refund, 15 to 29 days before for a 50% refund. Cancellations less than 15 days before travel are not refunded."},
		{"discounts", "Are there group or early bird discounts?", "Groups of 5 or more travellers get 10% off. Booking 60 days or more in advance gets 15% off."},
		{"seat-hold", "How long are seats held?", "Selected seats are locked for 5 minutes. If payment is not started in that time the seats are released for other travellers."},
		{"invoice", "Where is my invoice?", "Once a booking is confirmed the invoice PDF can be downloaded from My Bookings."},
		{"support", "How do I contact support?", "WhatsApp +91-9876543210 (24/7), email support@adventurebuddha.com, emergency line +91-9876543211."},
		{"what-to-carry", "What should I carry?", "Each trip page lists things to carry. Always bring a government photo ID, comfortable shoes and any personal medication."},
	}
	out := make([]Chunk, 0, len(entries))
	for _, e := range entries {
		out = append(out, Chunk{ID: e.id, Source: SourceFAQ, Title: e.title, Text: e.text})
	}
	return out
}

// TripChunks summarizes each published trip as one chunk.
func TripChunks(trips []models.Trip) []Chunk {
	out := make([]Chunk, 0, len(trips))
	for _, t := range trips {
		if t.Status != models.TripStatusPublished {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s). %s", t.Title, t.Duration, utils.NormalizeSpace(t.Description))
		fmt.Fprintf(&b, " Price %s per person, category %s, difficulty %s.", utils.FormatINR(t.Price), t.Category, t.Difficulty)
		if len(t.Tags) > 0 {
			fmt.Fprintf(&b, " Tags: %s.", strings.Join(t.Tags, ", "))
		}
		if len(t.Inclusions) > 0 {
			fmt.Fprintf(&b, " Includes: %s.", strings.Join(t.Inclusions, ", "))
		}
		if t.WhoCanAttend != "" {
			fmt.Fprintf(&b, " Who can attend: %s.", t.WhoCanAttend)
		}
		out = append(out, Chunk{
			ID:     strconv.FormatInt(t.ID, 10),
			Source: SourceTrip,
			Title:  t.Title,
			Text:   b.String(),
			Meta:   map[string]string{"slug": t.Slug},
		})
	}
	return out
}
