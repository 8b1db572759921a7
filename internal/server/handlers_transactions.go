package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/transactions"
)

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.categories.ListCategories(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	income := make([]ledger.Category, 0)
	expense := make([]ledger.Category, 0)
	for _, cat := range categories {
		if cat.Kind == ledger.KindIncome {
			income = append(income, cat)
		} else {
			expense = append(expense, cat)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"income_categories":  income,
		"expense_categories": expense,
	})
}

func (s *Server) handleTransactionList(c *gin.Context) {
	filter := ledger.TransactionFilter{
		Search: c.Query("search"),
	}

	if kindParam := c.Query("type"); kindParam != "" {
		kind := ledger.Kind(kindParam)
		if !kind.Valid() {
			respondError(c, &customerr.ValidationError{Field: "type", Reason: "must be income or expense"})
			return
		}
		filter.Kind = kind
	}

	if pageParam := c.Query("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil || page < 1 {
			respondError(c, &customerr.ValidationError{Field: "page", Reason: "must be a positive integer"})
			return
		}
		filter.Page = page
	}

	page, err := s.transactions.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleTransactionAdd(c *gin.Context) {
	var in transactions.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	userID := currentUserID(c)
	tx, err := s.transactions.Add(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}

	s.invalidateCharts(userID)
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) handleTransactionEdit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in transactions.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, &customerr.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	userID := currentUserID(c)
	tx, err := s.transactions.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	s.invalidateCharts(userID)
	c.JSON(http.StatusOK, tx)
}

func (s *Server) handleTransactionDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	userID := currentUserID(c)
	if err := s.transactions.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	s.invalidateCharts(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(c, &customerr.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}
