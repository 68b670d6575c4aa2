package trackings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"decorly/db/dbtest"
	"decorly/globals"
	"decorly/middleware"
	"decorly/models"

	"github.com/julienschmidt/httprouter"
)

func newTestService(t *testing.T) (*Service, *dbtest.Collection, *dbtest.Collection) {
	t.Helper()
	trackColl := dbtest.NewCollection()
	bookColl := dbtest.NewCollection()
	svcColl := dbtest.NewCollection()
	userColl := dbtest.NewCollection()

	if _, err := userColl.InsertOne(context.TODO(), models.User{
		Username: "boss",
		Email:    "admin@x.com",
		Role:     models.RoleAdmin,
	}); err != nil {
		t.Fatal(err)
	}

	guard := middleware.NewAuthGuard(userColl, nil)
	return NewService(trackColl, bookColl, svcColl, guard), trackColl, bookColl
}

func seedTimeline(t *testing.T, svc *Service, trackColl, bookColl *dbtest.Collection) {
	t.Helper()
	if _, err := bookColl.InsertOne(context.TODO(), models.Booking{
		BookingID:     "B1",
		UserEmail:     "owner@x.com",
		ServiceType:   "stage",
		PaymentStatus: models.PaymentPaid,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Services.(*dbtest.Collection).InsertOne(context.TODO(), models.ServiceOrder{
		ServiceID:      "S1",
		BookingID:      "B1",
		DecoratorEmail: "deco@x.com",
		Status:         models.StatusAssigned,
	}); err != nil {
		t.Fatal(err)
	}
	base := time.Now().UTC()
	for i, status := range []string{models.StatusAssigned, models.StatusConfirmed, models.StatusCompleted} {
		if _, err := trackColl.InsertOne(context.TODO(), models.TrackingEvent{
			BookingID: "B1",
			Status:    status,
			Email:     "deco@x.com",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func timelineRequest(t *testing.T, svc *Service, email string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/trackings/B1", nil)
	r = r.WithContext(context.WithValue(r.Context(), globals.EmailKey, email))
	svc.Timeline(rec, r, httprouter.Params{{Key: "bookingid", Value: "B1"}})
	return rec
}

func TestTimelineVisibility(t *testing.T) {
	svc, trackColl, bookColl := newTestService(t)
	seedTimeline(t, svc, trackColl, bookColl)

	for _, email := range []string{"owner@x.com", "deco@x.com", "admin@x.com"} {
		if rec := timelineRequest(t, svc, email); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", email, rec.Code)
		}
	}

	if rec := timelineRequest(t, svc, "stranger@x.com"); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger: expected 403, got %d", rec.Code)
	}
}

func TestTimelineOrderAndContent(t *testing.T) {
	svc, trackColl, bookColl := newTestService(t)
	seedTimeline(t, svc, trackColl, bookColl)

	rec := timelineRequest(t, svc, "owner@x.com")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Trackings []models.TrackingEvent `json:"trackings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	want := []string{models.StatusAssigned, models.StatusConfirmed, models.StatusCompleted}
	if len(resp.Trackings) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(resp.Trackings))
	}
	for i, ev := range resp.Trackings {
		if ev.Status != want[i] {
			t.Fatalf("event %d: expected status %s, got %s", i, want[i], ev.Status)
		}
	}
}

func TestTimelineUnknownBooking(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/trackings/nope", nil)
	r = r.WithContext(context.WithValue(r.Context(), globals.EmailKey, "owner@x.com"))
	svc.Timeline(rec, r, httprouter.Params{{Key: "bookingid", Value: "nope"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
