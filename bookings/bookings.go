package bookings

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"decorly/db"
	"decorly/models"
	"decorly/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type Service struct {
	Bookings db.Collection
}

func NewService(bookings db.Collection) *Service {
	return &Service{Bookings: bookings}
}

// CreateBooking records a customer's request for an event service. The
// owner is always the authenticated caller; a caller-supplied owner field
// is ignored.
func (s *Service) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		ServiceType string `json:"serviceType"`
		EventType   string `json:"eventType"`
		EventDate   string `json:"eventDate"`
		EventTime   string `json:"eventTime"`
		Location    string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	payload.ServiceType = strings.TrimSpace(payload.ServiceType)
	payload.EventType = strings.TrimSpace(payload.EventType)
	if payload.ServiceType == "" || payload.EventType == "" || payload.EventDate == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	booking := models.Booking{
		BookingID:     utils.GenerateID(14),
		UserEmail:     utils.GetUserEmailFromRequest(r),
		ServiceType:   payload.ServiceType,
		EventType:     payload.EventType,
		EventDate:     payload.EventDate,
		EventTime:     payload.EventTime,
		Location:      payload.Location,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.Bookings.InsertOne(r.Context(), booking); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message":   "Booking created",
		"bookingId": booking.BookingID,
	})
}

// GetUserBookings lists the caller's own bookings.
func (s *Service) GetUserBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := utils.GetUserEmailFromRequest(r)
	cursor, err := s.Bookings.Find(r.Context(), bson.M{"userEmail": email})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch bookings")
		return
	}
	defer cursor.Close(r.Context())

	var list []models.Booking
	if err := cursor.All(r.Context(), &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing bookings")
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": list})
}

// GetAllBookings lists every booking for the admin UI.
func (s *Service) GetAllBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cursor, err := s.Bookings.Find(r.Context(), bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch bookings")
		return
	}
	defer cursor.Close(r.Context())

	var list []models.Booking
	if err := cursor.All(r.Context(), &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing bookings")
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": list})
}

// AssignDecorator stamps the decorator email onto a booking.
func (s *Service) AssignDecorator(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")

	var payload struct {
		DecoratorEmail string `json:"decoratorEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.DecoratorEmail == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing decorator email")
		return
	}

	res, err := s.Bookings.UpdateOne(r.Context(),
		bson.M{"bookingId": bookingID},
		bson.M{"$set": bson.M{"decoratorEmail": payload.DecoratorEmail}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update booking")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Decorator assigned to booking"})
}

// DeleteBooking removes a booking. Admin only; payments and trackings are
// kept for the audit trail.
func (s *Service) DeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := s.Bookings.DeleteOne(r.Context(), bson.M{"bookingId": ps.ByName("id")})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete booking")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
