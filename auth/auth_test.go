package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"decorly/db/dbtest"
	"decorly/middleware"
	"decorly/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestService(t *testing.T) (*Service, *dbtest.Collection) {
	t.Helper()
	mr := miniredis.RunT(t)
	tokens := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	users := dbtest.NewCollection()
	return NewService(users, tokens), users
}

func register(t *testing.T, svc *Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	svc.Register(rec, r, nil)
	return rec
}

func login(t *testing.T, svc *Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	svc.Login(rec, r, nil)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newTestService(t)

	rec := register(t, svc, `{"username":"ana","email":"a@x.com","password":"hunter22"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	doc := users.Docs()[0]
	if role, _ := doc["role"].(string); role != models.RoleUser {
		t.Fatalf("new users start with role %q, got %v", models.RoleUser, doc["role"])
	}
	if pw, _ := doc["password"].(string); pw == "hunter22" || pw == "" {
		t.Fatal("password must be stored hashed")
	}

	rec = login(t, svc, `{"email":"a@x.com","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Fatal("expected access and refresh tokens")
	}

	claims, err := middleware.ValidateJWT("Bearer " + resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("expected principal a@x.com, got %q", claims.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	body := `{"username":"ana","email":"a@x.com","password":"hunter22"}`

	if rec := register(t, svc, body); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	if rec := register(t, svc, body); rec.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, `{"username":"ana","email":"a@x.com","password":"hunter22"}`)

	if rec := login(t, svc, `{"email":"a@x.com","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := login(t, svc, `{"email":"ghost@x.com","password":"whatever"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", rec.Code)
	}
}

func TestLoginBlockedUser(t *testing.T) {
	svc, users := newTestService(t)
	register(t, svc, `{"username":"ana","email":"a@x.com","password":"hunter22"}`)

	_, err := users.UpdateOne(context.TODO(),
		bson.M{"email": "a@x.com"},
		bson.M{"$set": bson.M{"blocked": true}},
	)
	if err != nil {
		t.Fatal(err)
	}

	if rec := login(t, svc, `{"email":"a@x.com","password":"hunter22"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("blocked user: expected 403, got %d", rec.Code)
	}
}
