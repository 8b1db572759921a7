package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req users.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	record, err := s.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.issueSession(c, record.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  gin.H{"id": record.ID, "name": record.Name, "email": record.Email},
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	record, err := s.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.issueSession(c, record.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": record.ID, "name": record.Name, "email": record.Email},
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) issueSession(c *gin.Context, userID int64) (string, error) {
	ttl := time.Duration(s.auth.TokenTTLHours()) * time.Hour
	token, err := issueToken(s.auth.JWTSecret(), userID, ttl)
	if err != nil {
		return "", err
	}
	c.SetCookie(tokenCookie, token, int(ttl.Seconds()), "/", "", false, true)
	return token, nil
}
