package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"decorly/db/dbtest"
	"decorly/globals"
	"decorly/models"
)

func newTestService() (*Service, *dbtest.Collection, *dbtest.Collection, *dbtest.Collection) {
	bookColl := dbtest.NewCollection()
	payColl := dbtest.NewCollection()
	trackColl := dbtest.NewCollection()
	return NewService(bookColl, payColl, trackColl, nil, nil), bookColl, payColl, trackColl
}

func authedRequest(t *testing.T, body, email string) *http.Request {
	t.Helper()
	r := httptest.NewRequest("POST", "/api/payments", strings.NewReader(body))
	ctx := context.WithValue(r.Context(), globals.EmailKey, email)
	return r.WithContext(ctx)
}

func seedBooking(t *testing.T, coll *dbtest.Collection, bookingID, status string) {
	t.Helper()
	_, err := coll.InsertOne(context.TODO(), models.Booking{
		BookingID:     bookingID,
		UserEmail:     "customer@example.com",
		ServiceType:   "birthday-decor",
		EventType:     "birthday",
		EventDate:     "2026-09-15",
		PaymentStatus: status,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func TestPayFlipsStatusAndWritesRecords(t *testing.T) {
	svc, bookColl, payColl, trackColl := newTestService()
	seedBooking(t, bookColl, "B1", models.PaymentUnpaid)

	rec := httptest.NewRecorder()
	svc.Pay(rec, authedRequest(t, `{"bookingId":"B1","amount":500}`, "customer@example.com"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	booking := bookColl.Docs()[0]
	if status, _ := booking["paymentStatus"].(string); status != models.PaymentPaid {
		t.Fatalf("expected booking paid, got %v", booking["paymentStatus"])
	}

	pays := payColl.Docs()
	if len(pays) != 1 {
		t.Fatalf("expected one payment record, got %d", len(pays))
	}
	if amount, _ := pays[0]["amount"].(float64); amount != 500 {
		t.Fatalf("expected amount 500, got %v", pays[0]["amount"])
	}
	if txn, _ := pays[0]["transactionId"].(string); txn == "" {
		t.Fatal("expected a generated transaction id")
	}

	tracks := trackColl.Docs()
	if len(tracks) != 1 {
		t.Fatalf("expected one tracking event, got %d", len(tracks))
	}
	if status, _ := tracks[0]["status"].(string); status != models.StatusCompleted {
		t.Fatalf("expected tracking status Completed, got %v", tracks[0]["status"])
	}
}

func TestPayIsIdempotent(t *testing.T) {
	svc, bookColl, payColl, trackColl := newTestService()
	seedBooking(t, bookColl, "B1", models.PaymentUnpaid)

	body := `{"bookingId":"B1","amount":500}`
	rec := httptest.NewRecorder()
	svc.Pay(rec, authedRequest(t, body, "customer@example.com"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first pay: expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	svc.Pay(rec, authedRequest(t, body, "customer@example.com"), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second pay: expected 409, got %d", rec.Code)
	}

	if len(payColl.Docs()) != 1 {
		t.Fatalf("second pay must not create a payment, got %d records", len(payColl.Docs()))
	}
	if len(trackColl.Docs()) != 1 {
		t.Fatalf("second pay must not append tracking events, got %d", len(trackColl.Docs()))
	}
}

func TestPayAgainstAlreadyPaidBooking(t *testing.T) {
	svc, bookColl, payColl, _ := newTestService()
	seedBooking(t, bookColl, "B1", models.PaymentPaid)

	rec := httptest.NewRecorder()
	svc.Pay(rec, authedRequest(t, `{"bookingId":"B1","amount":500}`, "customer@example.com"), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if len(payColl.Docs()) != 0 {
		t.Fatalf("no payment record may exist, got %d", len(payColl.Docs()))
	}
}

func TestPayUnknownBooking(t *testing.T) {
	svc, _, _, _ := newTestService()
	rec := httptest.NewRecorder()
	svc.Pay(rec, authedRequest(t, `{"bookingId":"nope","amount":500}`, "customer@example.com"), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPayValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	for _, body := range []string{
		`{"amount":500}`,
		`{"bookingId":"B1"}`,
		`{"bookingId":"B1","amount":0}`,
		`{"bookingId":"B1","amount":-10}`,
		`not json`,
	} {
		rec := httptest.NewRecorder()
		svc.Pay(rec, authedRequest(t, body, "customer@example.com"), nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCreateIntentWithoutGateway(t *testing.T) {
	svc, _, _, _ := newTestService()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/payments/intent", strings.NewReader(`{"amount":100}`))
	svc.CreateIntent(rec, r, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no gateway, got %d", rec.Code)
	}
}
