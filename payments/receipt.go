package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"decorly/models"
	"decorly/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

func hmacSecret() []byte {
	if s := os.Getenv("RECEIPT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev_only_receipt_key")
}

// receiptPayload returns bookingId|transactionId|signature, verifiable
// by scanning the QR on the printed receipt.
func receiptPayload(bookingID, txnID string) string {
	data := fmt.Sprintf("%s|%s", bookingID, txnID)
	h := hmac.New(sha256.New, hmacSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// Receipt renders a PDF receipt for the caller's payment on a booking.
func (s *Service) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("bookingid")
	email := utils.GetUserEmailFromRequest(r)

	var payment models.Payment
	if err := s.Payments.FindOne(r.Context(), bson.M{"bookingId": bookingID}).Decode(&payment); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "No payment found for booking")
		return
	}
	if payment.UserEmail != email {
		utils.RespondWithError(w, http.StatusForbidden, "Receipt belongs to another user")
		return
	}

	var booking models.Booking
	if err := s.Bookings.FindOne(r.Context(), bson.M{"bookingId": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	qrPNG, err := qrcode.Encode(receiptPayload(bookingID, payment.TransactionID), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Booking ID: %s", bookingID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Service: %s (%s)", booking.ServiceType, booking.EventType))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Paid by: %s", payment.UserEmail))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Amount: %.2f", payment.Amount))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Transaction: %s", payment.TransactionID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", payment.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+bookingID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
