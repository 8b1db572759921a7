package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/finance-tracker/internal/logger"
	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/users"
)

// respondError translates model errors into HTTP statuses. Storage and
// unknown errors hide their cause from the client.
func respondError(c *gin.Context, err error) {
	var (
		validationErr    *customerr.ValidationError
		authorizationErr *customerr.AuthorizationError
		notFoundErr      *customerr.NotFoundError
		conflictErr      *customerr.ConflictError
		storageErr       *customerr.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.As(err, &authorizationErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authorizationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &storageErr):
		logger.Error("storage error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		logger.Error("unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
