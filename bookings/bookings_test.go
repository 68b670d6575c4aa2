package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"decorly/db/dbtest"
	"decorly/globals"
	"decorly/models"

	"github.com/julienschmidt/httprouter"
)

func authedRequest(t *testing.T, method, target, body, email string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(r.Context(), globals.EmailKey, email)
	return r.WithContext(ctx)
}

func TestCreateBookingStampsOwnerFromToken(t *testing.T) {
	coll := dbtest.NewCollection()
	svc := NewService(coll)

	// body tries to smuggle a different owner; it must be ignored
	body := `{"serviceType":"stage","eventType":"wedding","eventDate":"2026-10-01",
		"location":"Dhaka","userEmail":"attacker@example.com"}`
	rec := httptest.NewRecorder()
	svc.CreateBooking(rec, authedRequest(t, "POST", "/api/bookings", body, "owner@example.com"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	doc := coll.Docs()[0]
	if owner, _ := doc["userEmail"].(string); owner != "owner@example.com" {
		t.Fatalf("owner must come from the token, got %v", doc["userEmail"])
	}
	if status, _ := doc["paymentStatus"].(string); status != models.PaymentUnpaid {
		t.Fatalf("new booking must be unpaid, got %v", doc["paymentStatus"])
	}

	var resp struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.BookingID == "" {
		t.Fatalf("expected a booking id in the response, got %q (err %v)", resp.BookingID, err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := NewService(dbtest.NewCollection())
	rec := httptest.NewRecorder()
	svc.CreateBooking(rec, authedRequest(t, "POST", "/api/bookings", `{"eventType":"wedding"}`, "o@x.com"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetUserBookingsFiltersByCaller(t *testing.T) {
	coll := dbtest.NewCollection()
	svc := NewService(coll)

	for _, b := range []models.Booking{
		{BookingID: "B1", UserEmail: "a@x.com", PaymentStatus: models.PaymentUnpaid},
		{BookingID: "B2", UserEmail: "b@x.com", PaymentStatus: models.PaymentUnpaid},
		{BookingID: "B3", UserEmail: "a@x.com", PaymentStatus: models.PaymentPaid},
	} {
		if _, err := coll.InsertOne(context.TODO(), b); err != nil {
			t.Fatal(err)
		}
	}

	rec := httptest.NewRecorder()
	svc.GetUserBookings(rec, authedRequest(t, "GET", "/api/bookings/user", "", "a@x.com"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Bookings) != 2 {
		t.Fatalf("expected 2 bookings for a@x.com, got %d", len(resp.Bookings))
	}
	for _, b := range resp.Bookings {
		if b.UserEmail != "a@x.com" {
			t.Fatalf("foreign booking leaked: %+v", b)
		}
	}
}

func TestAssignDecoratorUnknownBooking(t *testing.T) {
	svc := NewService(dbtest.NewCollection())
	rec := httptest.NewRecorder()
	svc.AssignDecorator(rec,
		authedRequest(t, "PATCH", "/api/bookings/nope/assign", `{"decoratorEmail":"d@x.com"}`, "admin@x.com"),
		httprouter.Params{{Key: "id", Value: "nope"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
