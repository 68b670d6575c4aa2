package admin

import (
	"encoding/json"
	"net/http"

	"decorly/db"
	"decorly/middleware"
	"decorly/models"
	"decorly/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// Service covers the admin user-management surface.
type Service struct {
	Users db.Collection
	Guard *middleware.AuthGuard
}

func NewService(users db.Collection, guard *middleware.AuthGuard) *Service {
	return &Service{Users: users, Guard: guard}
}

// GetUsers returns all user records.
func (s *Service) GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cursor, err := s.Users.Find(r.Context(), bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	defer cursor.Close(r.Context())

	var users []models.User
	if err := cursor.All(r.Context(), &users); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"users": users})
}

// SetBlocked blocks or unblocks a user. A blocked user keeps their record
// but fails every role check until unblocked.
func (s *Service) SetBlocked(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")

	var payload struct {
		Blocked bool `json:"blocked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	res, err := s.Users.UpdateOne(r.Context(),
		bson.M{"email": email},
		bson.M{"$set": bson.M{"blocked": payload.Blocked}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	if s.Guard != nil {
		s.Guard.InvalidateRole(r.Context(), email)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "User updated",
		"blocked": payload.Blocked,
	})
}

// DeleteUser removes a user record.
func (s *Service) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")

	res, err := s.Users.DeleteOne(r.Context(), bson.M{"email": email})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	if s.Guard != nil {
		s.Guard.InvalidateRole(r.Context(), email)
	}
	w.WriteHeader(http.StatusNoContent)
}
