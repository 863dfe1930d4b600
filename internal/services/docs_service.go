package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders booking invoices and e-tickets as PDF.
type DocsService struct {
	Bookings  repositories.BookingRepository
	Payments  repositories.PaymentRepository
	Users     repositories.UserRepository
	RequestID string
	Loader    func(userID, bookingID int64) (bookingDocData, error)
	Now       clock
}

type bookingDocData struct {
	Booking       models.Booking
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	PaymentMethod string
	TransactionID string
	PricePerSeat  float64
	GSTPercentage float64
}

func (s DocsService) GenerateInvoice(userID, bookingID int64) ([]byte, string, error) {
	data, err := s.load(userID, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_invoice", fmt.Sprintf("booking_id=%d", bookingID))
	return buildInvoicePDF(data, s.Now.now())
}

func (s DocsService) GenerateETicket(userID, bookingID int64) ([]byte, string, error) {
	data, err := s.load(userID, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("booking_id=%d", bookingID))
	return buildETicketPDF(data)
}

func (s DocsService) load(userID, bookingID int64) (bookingDocData, error) {
	var out bookingDocData
	if s.Loader != nil {
		var err error
		out, err = s.Loader(userID, bookingID)
		if err != nil {
			return out, err
		}
	} else {
		b, err := s.Bookings.GetForUser(bookingID, userID)
		if err != nil {
			return out, repoErr("booking", err)
		}
		out.Booking = b
		if u, err := s.Users.GetByID(userID); err == nil {
			out.CustomerName = u.Name
			out.CustomerEmail = u.Email
			out.CustomerPhone = u.Phone
		}
		if p, err := s.Payments.GetByBooking(bookingID); err == nil {
			out.PaymentMethod = p.Method
			out.TransactionID = p.TransactionID
		}
	}
	if !out.Booking.Invoiceable() {
		return out, domain.ConflictError{Resource: "booking", Msg: "documents are available for confirmed bookings only"}
	}
	if out.PricePerSeat == 0 && len(out.Booking.SeatIDs) > 0 {
		out.PricePerSeat = out.Booking.Amount / float64(len(out.Booking.SeatIDs))
	}
	if out.GSTPercentage == 0 {
		out.GSTPercentage = 5
	}
	return out, nil
}

// gstSplit treats amount as GST inclusive.
func gstSplit(amount, pct float64) (base, tax float64) {
	base = utils.RoundTo(amount/(1+pct/100), 2)
	return base, utils.RoundTo(amount-base, 2)
}

func buildInvoicePDF(d bookingDocData, now time.Time) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "ADVENTURE BUDDHA - INVOICE")
	pdf.Ln(12)

	invNo := fmt.Sprintf("INV-%d-%s", b.ID, now.Format("20060102"))
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice No : "+invNo)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date       : "+now.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Name  : "+safe(d.CustomerName, safe(b.UserName, "-")))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Email : "+safe(d.CustomerEmail, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Phone : "+safe(d.CustomerPhone, "-"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("%s (%s %s) Seats %s",
		safe(b.TripTitle, "Trip"), safe(dateOnly(b.SlotDate), "-"), safe(timeHM(b.SlotTime), "-"),
		strings.Join(b.SeatIDs, ", "))
	pdf.MultiCell(0, 6, "1) "+desc, "", "", false)
	pdf.Ln(2)
	pdf.Cell(0, 6, fmt.Sprintf("Price per seat : %s x %d", utils.FormatINR(d.PricePerSeat), len(b.SeatIDs)))
	pdf.Ln(7)

	base, tax := gstSplit(b.Amount, d.GSTPercentage)
	pdf.Cell(0, 6, "Taxable value  : "+utils.FormatINR(base))
	pdf.Ln(7)
	pdf.Cell(0, 6, fmt.Sprintf("GST (%.0f%%)     : %s", d.GSTPercentage, utils.FormatINR(tax)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total : "+utils.FormatINR(b.Amount))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Payment : "+safe(d.PaymentMethod, "-")+" "+safe(d.TransactionID, ""))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Status: "+b.Status+". Cancellation 30+ days before travel: 90% refund, 15+ days: 50%, under 15 days: no refund.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("INVOICE_%d_%s.pdf", b.ID, safeFilenamePart(b.TripSlug))
	return buf.Bytes(), filename, nil
}

func buildETicketPDF(d bookingDocData) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Traveller  : %s", safe(d.CustomerName, safe(b.UserName, "-"))),
		fmt.Sprintf("Phone      : %s", safe(d.CustomerPhone, "-")),
		fmt.Sprintf("Trip       : %s", safe(b.TripTitle, "-")),
		fmt.Sprintf("Date/Time  : %s %s", safe(dateOnly(b.SlotDate), "-"), safe(timeHM(b.SlotTime), "-")),
		fmt.Sprintf("Seats      : %s", safe(strings.Join(b.SeatIDs, ", "), "-")),
		fmt.Sprintf("Booking    : #%d", b.ID),
		fmt.Sprintf("Ticket     : TCK-%d", b.ID),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please show this e-ticket with a photo ID at the pickup point.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ETICKET_%d_%s.pdf", b.ID, safeFilenamePart(b.TripSlug))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func dateOnly(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 10 {
		return v[:10]
	}
	return v
}

func timeHM(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 5 {
		return v[:5]
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
