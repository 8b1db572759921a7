package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"max.ks1230/finance-tracker/internal/model/budgets"
	"max.ks1230/finance-tracker/internal/model/customerr"
)

func (s *Server) handleBudgetList(c *gin.Context) {
	statuses, err := s.budgets.List(c.Request.Context(), currentUserID(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": statuses})
}

func (s *Server) handleBudgetAdd(c *gin.Context) {
	var in budgets.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	budget, err := s.budgets.Add(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budget)
}

func (s *Server) handleBudgetEdit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in budgets.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	budget, err := s.budgets.Update(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (s *Server) handleBudgetDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.budgets.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}
