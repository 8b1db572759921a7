package storage

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_OnUniqueViolation_ShouldMapToConflict(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: "23505"}, "create budget")))
}

func Test_OnOtherDatabaseErrors_ShouldNotMapToConflict(t *testing.T) {
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}
