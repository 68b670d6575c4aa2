package trackings

import (
	"net/http"

	"decorly/db"
	"decorly/middleware"
	"decorly/models"
	"decorly/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Service reads the append-only tracking trail. Events are written by the
// payment and service packages; nothing here ever mutates them.
type Service struct {
	Trackings db.Collection
	Bookings  db.Collection
	Services  db.Collection
	Guard     *middleware.AuthGuard
}

func NewService(trackings, bookings, services db.Collection, guard *middleware.AuthGuard) *Service {
	return &Service{Trackings: trackings, Bookings: bookings, Services: services, Guard: guard}
}

// Timeline returns a booking's tracking events ordered by creation time.
// Visible to the booking owner, the assigned decorator, and admins.
func (s *Service) Timeline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("bookingid")
	email := utils.GetUserEmailFromRequest(r)

	var booking models.Booking
	err := s.Bookings.FindOne(r.Context(), bson.M{"bookingId": bookingID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !s.mayView(r, booking, email) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied")
		return
	}

	findOpts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := s.Trackings.Find(r.Context(), bson.M{"bookingId": bookingID}, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch trackings")
		return
	}
	defer cursor.Close(r.Context())

	var events []models.TrackingEvent
	if err := cursor.All(r.Context(), &events); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing trackings")
		return
	}
	if events == nil {
		events = []models.TrackingEvent{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"trackings": events})
}

func (s *Service) mayView(r *http.Request, booking models.Booking, email string) bool {
	if booking.UserEmail == email {
		return true
	}

	var order models.ServiceOrder
	if err := s.Services.FindOne(r.Context(), bson.M{"bookingId": booking.BookingID}).Decode(&order); err == nil {
		if order.DecoratorEmail == email {
			return true
		}
	}

	if s.Guard != nil {
		if role, err := s.Guard.ResolveRole(r.Context(), email); err == nil && role == models.RoleAdmin {
			return true
		}
	}
	return false
}
