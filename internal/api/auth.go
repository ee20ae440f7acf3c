package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/config"
	"github.com/studyhub-app/studyhub-server/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// RegisterRequest represents a signup request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// HandleRegister creates a new account
func HandleRegister(db *gorm.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if req.Username == "" || req.Email == "" {
			respondError(w, http.StatusBadRequest, "Username and email are required")
			return
		}
		if len(req.Password) < 8 {
			respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("Register: error hashing password:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		newUser := models.User{
			ID:        uuid.NewString(),
			Username:  req.Username,
			Email:     req.Email,
			Password:  string(hashedPassword),
			Active:    true,
			CreatedAt: time.Now(),
		}

		if err := db.Create(&newUser).Error; err != nil {
			log.Println("Register: error creating user:", err.Error())
			respondError(w, http.StatusConflict, "Username or email already in use")
			return
		}

		// Every account starts with default settings
		settings := models.DefaultUserSettings(newUser.ID)
		if err := db.Create(&settings).Error; err != nil {
			log.Println("Register: failed to create default settings:", err.Error())
		}

		token, err := generateJWT(newUser.ID, cfg.JWTSecret)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		respondJSON(w, http.StatusCreated, LoginResponse{
			Token: token,
			User:  &newUser,
		})
	}
}

// HandleLogin handles user login
func HandleLogin(db *gorm.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Println("Login: failed to decode request")
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		// Find user by username or email
		var user models.User
		err := db.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error
		if err != nil {
			log.Println("Login: authentication failed - user not found")
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Println("Login: authentication failed - invalid password")
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := generateJWT(user.ID, cfg.JWTSecret)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		respondJSON(w, http.StatusOK, LoginResponse{
			Token: token,
			User:  &user,
		})
	}
}

// HandleLogout handles user logout
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// In a stateless JWT system, logout is handled client-side
		respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

// HandleGetCurrentUser returns the current authenticated user
func HandleGetCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		respondJSON(w, http.StatusOK, user)
	}
}

// currentUser returns the authenticated user set by AuthMiddleware.
func currentUser(r *http.Request) *models.User {
	return r.Context().Value(userContextKey).(*models.User)
}

// AuthMiddleware validates JWT tokens
func AuthMiddleware(jwtSecret string, db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims := token.Claims.(jwt.MapClaims)
			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			// Load user from database
			var user models.User
			err = db.Where("id = ?", userID).First(&user).Error
			if err != nil {
				log.Println("AuthMiddleware: failed to load user:", err.Error())
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// generateJWT generates a JWT token for a user
func generateJWT(userID string, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(2 * time.Hour).Unix(),
	})

	return token.SignedString([]byte(secret))
}
