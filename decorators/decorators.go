package decorators

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"decorly/db"
	"decorly/middleware"
	"decorly/models"
	"decorly/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service handles the decorator application workflow.
type Service struct {
	Applications db.Collection
	Users        db.Collection
	Guard        *middleware.AuthGuard
}

func NewService(applications, users db.Collection, guard *middleware.AuthGuard) *Service {
	return &Service{Applications: applications, Users: users, Guard: guard}
}

// Apply submits a decorator application for the calling user. One
// application per email, regardless of status.
func (s *Service) Apply(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := utils.GetUserEmailFromRequest(r)

	var payload struct {
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		NID        string `json:"nid"`
		Experience string `json:"experience"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Phone = strings.TrimSpace(payload.Phone)
	if payload.Name == "" || payload.Phone == "" || payload.NID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	// One application per email
	err := s.Applications.FindOne(r.Context(), bson.M{"email": email}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "You have already applied to be a decorator")
		return
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	app := models.DecoratorApplication{
		ID:         primitive.NewObjectID(),
		Name:       payload.Name,
		Email:      email,
		Phone:      payload.Phone,
		NID:        payload.NID,
		Experience: payload.Experience,
		Status:     models.ApplicationPending,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.Applications.InsertOne(r.Context(), app); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save application")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Decorator application submitted",
		"id":      app.ID.Hex(),
	})
}

// Approve marks an application approved and promotes the linked user to
// decorator. The two writes are ordered; a second-step failure is
// reported for manual reconciliation, never swallowed.
func (s *Service) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	var app models.DecoratorApplication
	if err := s.Applications.FindOne(r.Context(), bson.M{"_id": id}).Decode(&app); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Application not found")
		return
	}

	res, err := s.Applications.UpdateOne(r.Context(),
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.ApplicationApproved}},
	)
	if err != nil || res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to approve application")
		return
	}

	if _, err := s.Users.UpdateOne(r.Context(),
		bson.M{"email": app.Email},
		bson.M{"$set": bson.M{"role": models.RoleDecorator}},
	); err != nil {
		log.Printf("Approve: application %s approved but role update for %s failed: %v",
			app.ID.Hex(), app.Email, err)
		utils.RespondWithError(w, http.StatusInternalServerError,
			"Application approved but role update failed; manual reconciliation required")
		return
	}

	if s.Guard != nil {
		s.Guard.InvalidateRole(r.Context(), app.Email)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Decorator approved",
		"email":   app.Email,
	})
}

// ListApplications returns pending applications for the admin UI.
func (s *Service) ListApplications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cursor, err := s.Applications.Find(r.Context(), bson.M{"status": models.ApplicationPending})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch applications")
		return
	}
	defer cursor.Close(r.Context())

	var apps []models.DecoratorApplication
	if err := cursor.All(r.Context(), &apps); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing applications")
		return
	}
	if apps == nil {
		apps = []models.DecoratorApplication{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"applications": apps})
}
