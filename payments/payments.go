package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"decorly/db"
	"decorly/gateway"
	"decorly/models"
	"decorly/mq"
	"decorly/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyPaid     = errors.New("booking already paid")
)

// PartialError reports a multi-write payment that failed after the
// paid flip landed. There is no rollback; operators reconcile manually.
type PartialError struct {
	BookingID string
	Step      string
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("payment for booking %s partially failed at %s: %v", e.BookingID, e.Step, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

type Service struct {
	Bookings  db.Collection
	Payments  db.Collection
	Trackings db.Collection
	Gateway   *gateway.Client
	Emitter   *mq.Emitter
}

func NewService(bookings, payments, trackings db.Collection, gw *gateway.Client, emitter *mq.Emitter) *Service {
	return &Service{
		Bookings:  bookings,
		Payments:  payments,
		Trackings: trackings,
		Gateway:   gw,
		Emitter:   emitter,
	}
}

// Pay confirms a payment against a booking. The unpaid-to-paid flip is a
// single conditional update so two concurrent requests cannot both pass
// the guard; the loser sees zero matched documents.
func (s *Service) Pay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		BookingID     string  `json:"bookingId"`
		Amount        float64 `json:"amount"`
		TransactionID string  `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.BookingID == "" || payload.Amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing bookingId or invalid amount")
		return
	}
	if payload.TransactionID == "" {
		payload.TransactionID = uuid.NewString()
	}

	email := utils.GetUserEmailFromRequest(r)

	payment, err := s.process(r, email, payload.BookingID, payload.Amount, payload.TransactionID)
	if err != nil {
		var partial *PartialError
		switch {
		case errors.Is(err, ErrBookingNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		case errors.Is(err, ErrAlreadyPaid):
			utils.RespondWithError(w, http.StatusConflict, "Booking is already paid")
		case errors.As(err, &partial):
			log.Printf("Pay: %v", partial)
			utils.RespondWithError(w, http.StatusInternalServerError, partial.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Payment failed")
		}
		return
	}

	if s.Emitter != nil {
		s.Emitter.Emit(r.Context(), mq.LifecycleEvent{
			BookingID: payment.BookingID,
			Status:    models.PaymentPaid,
			Actor:     email,
			At:        payment.CreatedAt,
		})
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Payment recorded",
		"payment": payment,
	})
}

func (s *Service) process(r *http.Request, email, bookingID string, amount float64, txnID string) (models.Payment, error) {
	ctx := r.Context()

	// Atomic idempotence guard: flip paymentStatus only if still unpaid.
	res, err := s.Bookings.UpdateOne(ctx,
		bson.M{"bookingId": bookingID, "paymentStatus": models.PaymentUnpaid},
		bson.M{"$set": bson.M{"paymentStatus": models.PaymentPaid}},
	)
	if err != nil {
		return models.Payment{}, err
	}
	if res.MatchedCount == 0 {
		// Disambiguate: missing booking vs already paid.
		err := s.Bookings.FindOne(ctx, bson.M{"bookingId": bookingID}).Err()
		if err == mongo.ErrNoDocuments {
			return models.Payment{}, ErrBookingNotFound
		}
		if err != nil {
			return models.Payment{}, err
		}
		return models.Payment{}, ErrAlreadyPaid
	}

	payment := models.Payment{
		PaymentID:     utils.GenerateID(14),
		BookingID:     bookingID,
		Amount:        amount,
		TransactionID: txnID,
		UserEmail:     email,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.Payments.InsertOne(ctx, payment); err != nil {
		return models.Payment{}, &PartialError{BookingID: bookingID, Step: "payment-insert", Err: err}
	}

	event := models.TrackingEvent{
		BookingID: bookingID,
		Status:    models.StatusCompleted,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.Trackings.InsertOne(ctx, event); err != nil {
		return models.Payment{}, &PartialError{BookingID: bookingID, Step: "tracking-append", Err: err}
	}

	return payment, nil
}

// CreateIntent asks the payment gateway for a client secret. Disabled
// with 503 when no gateway is configured.
func (s *Service) CreateIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.Gateway == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Payment gateway not configured")
		return
	}

	var payload struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	intent, err := s.Gateway.CreateIntent(payload.Amount, payload.Currency)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to create payment intent")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"clientSecret": intent.ClientSecret})
}
