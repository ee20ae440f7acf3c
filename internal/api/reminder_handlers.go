package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/notification"
)

// ReminderRuleRequest represents a reminder channel create/update payload
type ReminderRuleRequest struct {
	Name   string                 `json:"name"`
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config"`
	Active *bool                  `json:"active"`
}

// HandleGetReminderRules lists the user's reminder channels
func HandleGetReminderRules(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var rules []models.ReminderRule
		if err := db.Where("user_id = ?", user.ID).Order("id ASC").Find(&rules).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		for i := range rules {
			if rules[i].ConfigRaw != "" {
				var config map[string]interface{}
				if err := json.Unmarshal([]byte(rules[i].ConfigRaw), &config); err == nil {
					rules[i].Config = config
				}
			}
		}

		respondJSON(w, http.StatusOK, rules)
	}
}

// HandleCreateReminderRule creates a reminder channel
func HandleCreateReminderRule(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req ReminderRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Name is required")
			return
		}

		provider, ok := notification.GetProvider(req.Type)
		if !ok {
			respondError(w, http.StatusBadRequest, "Unknown reminder channel type")
			return
		}
		if err := provider.Validate(req.Config); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		configRaw, err := json.Marshal(req.Config)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid config")
			return
		}

		rule := models.ReminderRule{
			UserID:    user.ID,
			Name:      req.Name,
			Type:      req.Type,
			Config:    req.Config,
			ConfigRaw: string(configRaw),
			Active:    true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if req.Active != nil {
			rule.Active = *req.Active
		}

		if err := db.Create(&rule).Error; err != nil {
			log.Println("Reminders: failed to create rule:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to create reminder rule")
			return
		}

		respondJSON(w, http.StatusCreated, rule)
	}
}

// HandleUpdateReminderRule updates a reminder channel
func HandleUpdateReminderRule(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		rule, ok := loadRule(w, r, db, user.ID)
		if !ok {
			return
		}

		var req ReminderRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if req.Name != "" {
			rule.Name = req.Name
		}
		if req.Type != "" && req.Type != rule.Type {
			if _, ok := notification.GetProvider(req.Type); !ok {
				respondError(w, http.StatusBadRequest, "Unknown reminder channel type")
				return
			}
			rule.Type = req.Type
		}
		if req.Config != nil {
			provider, ok := notification.GetProvider(rule.Type)
			if !ok {
				respondError(w, http.StatusBadRequest, "Unknown reminder channel type")
				return
			}
			if err := provider.Validate(req.Config); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			configRaw, err := json.Marshal(req.Config)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid config")
				return
			}
			rule.Config = req.Config
			rule.ConfigRaw = string(configRaw)
		}
		if req.Active != nil {
			rule.Active = *req.Active
		}
		rule.UpdatedAt = time.Now()

		if err := db.Save(rule).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update reminder rule")
			return
		}

		respondJSON(w, http.StatusOK, rule)
	}
}

// HandleDeleteReminderRule deletes a reminder channel
func HandleDeleteReminderRule(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		ruleID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid rule id")
			return
		}

		result := db.Where("id = ? AND user_id = ?", ruleID, user.ID).Delete(&models.ReminderRule{})
		if result.Error != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete reminder rule")
			return
		}
		if result.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "Reminder rule not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleTestReminderRule sends a test message through one channel
func HandleTestReminderRule(db *gorm.DB, dispatcher *notification.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		rule, ok := loadRule(w, r, db, user.ID)
		if !ok {
			return
		}

		if rule.ConfigRaw != "" {
			var config map[string]interface{}
			if err := json.Unmarshal([]byte(rule.ConfigRaw), &config); err == nil {
				rule.Config = config
			}
		}

		if err := dispatcher.TestRule(r.Context(), rule); err != nil {
			log.Printf("Reminders: test delivery via %s failed: %v", rule.Type, err)
			respondError(w, http.StatusBadGateway, "Test delivery failed: "+err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"message": "Test reminder sent"})
	}
}

// HandleGetReminderChannelTypes lists the supported channel types
func HandleGetReminderChannelTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types := []string{}
		for name := range notification.GetAllProviders() {
			types = append(types, name)
		}
		respondJSON(w, http.StatusOK, types)
	}
}

// loadRule fetches a rule by path id, scoped to the user. On failure it
// writes the error response and returns ok=false.
func loadRule(w http.ResponseWriter, r *http.Request, db *gorm.DB, userID string) (*models.ReminderRule, bool) {
	ruleID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid rule id")
		return nil, false
	}

	var rule models.ReminderRule
	err = db.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Reminder rule not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}

	return &rule, true
}
