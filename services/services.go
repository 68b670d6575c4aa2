package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"decorly/db"
	"decorly/models"
	"decorly/mq"
	"decorly/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Platform keeps 60% of every payment; the decorator earns the rest.
const decoratorShare = 0.4

type Service struct {
	Services  db.Collection
	Bookings  db.Collection
	Payments  db.Collection
	Trackings db.Collection
	Emitter   *mq.Emitter
}

func NewService(services, bookings, payments, trackings db.Collection, emitter *mq.Emitter) *Service {
	return &Service{
		Services:  services,
		Bookings:  bookings,
		Payments:  payments,
		Trackings: trackings,
		Emitter:   emitter,
	}
}

// Assign creates the work order for a paid booking. One service per
// booking; assigning before payment is rejected.
func (s *Service) Assign(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		BookingID      string `json:"bookingId"`
		DecoratorEmail string `json:"decoratorEmail"`
		DecoratorName  string `json:"decoratorName"`
		DecoratorPhone string `json:"decoratorPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.BookingID == "" || payload.DecoratorEmail == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing bookingId or decorator email")
		return
	}

	var booking models.Booking
	err := s.Bookings.FindOne(r.Context(), bson.M{"bookingId": payload.BookingID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if booking.PaymentStatus != models.PaymentPaid {
		utils.RespondWithError(w, http.StatusBadRequest, "Booking must be paid before assignment")
		return
	}

	// One service per booking
	err = s.Services.FindOne(r.Context(), bson.M{"bookingId": payload.BookingID}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "Service already assigned for this booking")
		return
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	order := models.ServiceOrder{
		ServiceID:      utils.GenerateID(14),
		BookingID:      payload.BookingID,
		ServiceType:    booking.ServiceType,
		DecoratorEmail: payload.DecoratorEmail,
		DecoratorName:  payload.DecoratorName,
		DecoratorPhone: payload.DecoratorPhone,
		Price:          0,
		Status:         models.StatusAssigned,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.Services.InsertOne(r.Context(), order); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create service")
		return
	}

	if s.Emitter != nil {
		s.Emitter.Emit(r.Context(), mq.LifecycleEvent{
			BookingID: order.BookingID,
			Status:    order.Status,
			Actor:     utils.GetUserEmailFromRequest(r),
			At:        order.CreatedAt,
		})
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message":   "Service assigned",
		"serviceId": order.ServiceID,
	})
}

// UpdateStatus advances a service through the fixed transition table.
func (s *Service) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	serviceID := ps.ByName("id")

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Status == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing status")
		return
	}

	var order models.ServiceOrder
	err := s.Services.FindOne(r.Context(), bson.M{"serviceId": serviceID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Service not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !ValidTransition(order.Status, payload.Status) {
		utils.RespondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid transition from %s to %s", order.Status, payload.Status))
		return
	}

	// Guard on the current status so a concurrent update cannot skip a step.
	res, err := s.Services.UpdateOne(r.Context(),
		bson.M{"serviceId": serviceID, "status": order.Status},
		bson.M{"$set": bson.M{"status": payload.Status}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Service status changed concurrently")
		return
	}

	event := models.TrackingEvent{
		BookingID: order.BookingID,
		Status:    payload.Status,
		Email:     utils.GetUserEmailFromRequest(r),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.Trackings.InsertOne(r.Context(), event); err != nil {
		log.Printf("UpdateStatus: status set but tracking append failed for booking %s: %v",
			order.BookingID, err)
	}

	if s.Emitter != nil {
		s.Emitter.Emit(r.Context(), mq.LifecycleEvent{
			BookingID: order.BookingID,
			Status:    payload.Status,
			Actor:     event.Email,
			At:        event.CreatedAt,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Status updated",
		"status":  payload.Status,
	})
}

// CashOut records the decorator's earned share of the booking's payment.
// The cashedOut marker is the idempotence flag; the price alone cannot be,
// since a small payment rounds to a 0.00 share. Forces status to Completed.
func (s *Service) CashOut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	serviceID := ps.ByName("id")

	var payload struct {
		TrackingNumber string `json:"trackingNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	var order models.ServiceOrder
	err := s.Services.FindOne(r.Context(), bson.M{"serviceId": serviceID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Service not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if order.CashedOut {
		utils.RespondWithError(w, http.StatusConflict, "Service already cashed out")
		return
	}

	var payment models.Payment
	err = s.Payments.FindOne(r.Context(), bson.M{"bookingId": order.BookingID}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusBadRequest, "No payment found for booking")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	amount := roundShare(payment.Amount)

	// Atomic idempotence guard: only the request that flips the marker wins.
	res, err := s.Services.UpdateOne(r.Context(),
		bson.M{"serviceId": serviceID, "cashedOut": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"price": amount, "status": models.StatusCompleted, "cashedOut": true}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to cash out")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Service already cashed out")
		return
	}

	email := utils.GetUserEmailFromRequest(r)
	event := models.TrackingEvent{
		BookingID:      order.BookingID,
		Status:         models.StatusCompleted,
		Email:          email,
		Cost:           amount,
		TrackingNumber: payload.TrackingNumber,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.Trackings.InsertOne(r.Context(), event); err != nil {
		log.Printf("CashOut: price set but tracking append failed for booking %s: %v",
			order.BookingID, err)
		utils.RespondWithError(w, http.StatusInternalServerError,
			"Cash-out recorded but tracking append failed; manual reconciliation required")
		return
	}

	if s.Emitter != nil {
		s.Emitter.Emit(r.Context(), mq.LifecycleEvent{
			BookingID: order.BookingID,
			Status:    models.StatusCompleted,
			Actor:     email,
			At:        event.CreatedAt,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Cash-out complete",
		"price":   amount,
	})
}

// roundShare computes the decorator's cut rounded to two decimals.
func roundShare(amount float64) float64 {
	return math.Round(amount*decoratorShare*100) / 100
}

// ListAll returns every service order for the admin UI.
func (s *Service) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cursor, err := s.Services.Find(r.Context(), bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch services")
		return
	}
	defer cursor.Close(r.Context())

	var list []models.ServiceOrder
	if err := cursor.All(r.Context(), &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing services")
		return
	}
	if list == nil {
		list = []models.ServiceOrder{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"services": list})
}

// ListForDecorator returns the caller's assigned work orders.
func (s *Service) ListForDecorator(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := utils.GetUserEmailFromRequest(r)
	cursor, err := s.Services.Find(r.Context(), bson.M{"decoratorEmail": email})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch services")
		return
	}
	defer cursor.Close(r.Context())

	var list []models.ServiceOrder
	if err := cursor.All(r.Context(), &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing services")
		return
	}
	if list == nil {
		list = []models.ServiceOrder{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"services": list})
}
