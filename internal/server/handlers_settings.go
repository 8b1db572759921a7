package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/users"
)

var (
	currencyOptions   = []string{"$", "€", "£", "¥", "₹"}
	dateFormatOptions = []string{"DD/MM/YYYY", "MM/DD/YYYY", "YYYY-MM-DD"}
	timezoneOptions   = []string{"UTC", "Europe/London", "Europe/Moscow", "America/New_York", "Asia/Tokyo"}
)

type settingsBody struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Currency        string `json:"currency"`
	DateFormat      string `json:"date_format"`
	Timezone        string `json:"timezone"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleSettingsGet(c *gin.Context) {
	record, err := s.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"name":        record.Name,
			"email":       record.Email,
			"currency":    record.CurrencyOrDefault(),
			"date_format": record.DateFormatOrDefault(),
			"timezone":    record.TimezoneOrDefault(),
		},
		"currencies":   currencyOptions,
		"date_formats": dateFormatOptions,
		"timezones":    timezoneOptions,
	})
}

func (s *Server) handleSettingsPost(c *gin.Context) {
	var body settingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	req := users.SettingsRequest{
		Name:            body.Name,
		Email:           body.Email,
		Currency:        body.Currency,
		DateFormat:      body.DateFormat,
		Timezone:        body.Timezone,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}
	if err := s.users.UpdateSettings(c.Request.Context(), currentUserID(c), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated successfully"})
}
