package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"decorly/db"
	"decorly/middleware"
	"decorly/models"
	"decorly/mq"
	"decorly/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; lock down in production
		return true
	},
}

// Feed pushes lifecycle events to websocket subscribers per booking.
// Subscribing is gated the same way as the tracking timeline: booking
// owner, assigned decorator, or admin.
type Feed struct {
	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn

	Bookings db.Collection
	Services db.Collection
	Guard    *middleware.AuthGuard
}

func NewFeed(bookings, services db.Collection, guard *middleware.AuthGuard) *Feed {
	return &Feed{
		subscribers: make(map[string][]*websocket.Conn),
		Bookings:    bookings,
		Services:    services,
		Guard:       guard,
	}
}

// HandleWS subscribes the connection to one booking's event stream and
// holds it open until the client disconnects. Runs behind Authenticate.
func (f *Feed) HandleWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("bookingid")
	email := utils.GetUserEmailFromRequest(r)

	var booking models.Booking
	err := f.Bookings.FindOne(r.Context(), bson.M{"bookingId": bookingID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !f.mayWatch(r, booking, email) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.subscribers[bookingID] = append(f.subscribers[bookingID], conn)
	f.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.mu.Lock()
	conns := f.subscribers[bookingID]
	remaining := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			remaining = append(remaining, c)
		}
	}
	f.subscribers[bookingID] = remaining
	f.mu.Unlock()

	conn.Close()
}

func (f *Feed) mayWatch(r *http.Request, booking models.Booking, email string) bool {
	if booking.UserEmail == email {
		return true
	}

	var order models.ServiceOrder
	if err := f.Services.FindOne(r.Context(), bson.M{"bookingId": booking.BookingID}).Decode(&order); err == nil {
		if order.DecoratorEmail == email {
			return true
		}
	}

	if f.Guard != nil {
		if role, err := f.Guard.ResolveRole(r.Context(), email); err == nil && role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// Broadcast fans a lifecycle event out to the booking's subscribers.
// Used as the mq notifier callback.
func (f *Feed) Broadcast(event mq.LifecycleEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("live: failed to marshal event: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.subscribers[event.BookingID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("live: write to subscriber failed: %v", err)
		}
	}
}
