package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"decorly/db"
	"decorly/globals"
	"decorly/middleware"
	"decorly/models"
	"decorly/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenTTL = 7 * 24 * time.Hour
	accessTokenTTL  = 15 * time.Minute
)

// Service issues and revokes bearer credentials. Tokens may be nil; the
// Redis mirror of issued access tokens is best-effort.
type Service struct {
	Users  db.Collection
	Tokens *redis.Client
}

func NewService(users db.Collection, tokens *redis.Client) *Service {
	return &Service{Users: users, Tokens: tokens}
}

func (s *Service) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Username == "" || input.Password == "" || input.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	err := s.Users.FindOne(r.Context(), bson.M{"email": input.Email}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "User already exists")
		return
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashed),
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.Users.InsertOne(r.Context(), user); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Registration successful",
		"email":   user.Email,
	})
}

func (s *Service) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var stored models.User
	err := s.Users.FindOne(r.Context(), bson.M{"email": input.Email}).Decode(&stored)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if stored.Blocked {
		utils.RespondWithError(w, http.StatusForbidden, "Account is blocked")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(input.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	tokenString, err := generateAccessToken(stored)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	refreshToken, err := generateRefreshToken()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate refresh token")
		return
	}

	_, err = s.Users.UpdateOne(r.Context(),
		bson.M{"email": stored.Email},
		bson.M{"$set": bson.M{
			"refreshToken":  hashToken(refreshToken),
			"refreshExpiry": time.Now().Add(refreshTokenTTL),
			"lastLogin":     time.Now(),
		}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store refresh token")
		return
	}

	s.mirrorToken(r.Context(), stored.Email, tokenString)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"token":        tokenString,
		"refreshToken": refreshToken,
		"email":        stored.Email,
	})
}

// RefreshToken exchanges a stored refresh token for a fresh access token.
func (s *Service) RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.RefreshToken == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing refresh token")
		return
	}

	email := utils.GetUserEmailFromRequest(r)
	var stored models.User
	if err := s.Users.FindOne(r.Context(), bson.M{"email": email}).Decode(&stored); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unknown user")
		return
	}
	if stored.RefreshToken != hashToken(input.RefreshToken) || time.Now().After(stored.RefreshExpiry) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	tokenString, err := generateAccessToken(stored)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	s.mirrorToken(r.Context(), stored.Email, tokenString)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": tokenString})
}

func (s *Service) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := utils.GetUserEmailFromRequest(r)
	_, err := s.Users.UpdateOne(r.Context(),
		bson.M{"email": email},
		bson.M{"$set": bson.M{"refreshToken": "", "refreshExpiry": time.Time{}}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	if s.Tokens != nil {
		if err := s.Tokens.HDel(r.Context(), "tokki", email).Err(); err != nil {
			log.Printf("Logout: token mirror cleanup failed for %s: %v", email, err)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out"})
}

func (s *Service) mirrorToken(ctx context.Context, email, token string) {
	if s.Tokens == nil {
		return
	}
	if err := s.Tokens.HSet(ctx, "tokki", email, token).Err(); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}
}

func generateAccessToken(user models.User) (string, error) {
	claims := middleware.Claims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
