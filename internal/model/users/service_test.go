package users

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/storage"
)

func Test_OnRegister_ShouldSeedDefaultCategories(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemStorage()
	svc := NewService(store)

	rec, err := svc.Register(ctx, RegisterRequest{Name: "Max", Email: "Max@Example.com", Password: "secret123"})
	assert.NoError(t, err)
	assert.Equal(t, "max@example.com", rec.Email)
	assert.NotEqual(t, "secret123", rec.PasswordHash)

	categories, err := store.ListCategories(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 19)

	expenses := 0
	for _, c := range categories {
		if c.Kind == ledger.KindExpense {
			expenses++
		}
	}
	assert.Equal(t, 11, expenses)
}

func Test_OnRegister_WithDuplicateEmail_ShouldConflict(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewInMemStorage())

	_, err := svc.Register(ctx, RegisterRequest{Name: "Max", Email: "max@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Other", Email: "MAX@example.com", Password: "secret456"})

	var conflictErr *customerr.ConflictError
	assert.True(t, errors.As(err, &conflictErr))
}

func Test_OnRegister_WithEmptyName_ShouldFailValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewInMemStorage())

	_, err := svc.Register(ctx, RegisterRequest{Name: "  ", Email: "max@example.com", Password: "secret123"})

	var validationErr *customerr.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func Test_OnAuthenticate_ShouldReturnUserForValidPair(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewInMemStorage())

	_, err := svc.Register(ctx, RegisterRequest{Name: "Max", Email: "max@example.com", Password: "secret123"})
	require.NoError(t, err)

	rec, err := svc.Authenticate(ctx, "max@example.com", "secret123")
	assert.NoError(t, err)
	assert.Equal(t, "Max", rec.Name)
}

func Test_OnAuthenticate_WithWrongPassword_ShouldNotRevealWhy(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewInMemStorage())

	_, err := svc.Register(ctx, RegisterRequest{Name: "Max", Email: "max@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "max@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func Test_OnUpdateSettings_WithWrongCurrentPassword_ShouldFailValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewInMemStorage())

	rec, err := svc.Register(ctx, RegisterRequest{Name: "Max", Email: "max@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = svc.UpdateSettings(ctx, rec.ID, SettingsRequest{
		Currency:        "€",
		CurrentPassword: "wrong",
		NewPassword:     "newsecret",
	})

	var validationErr *customerr.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "current_password", validationErr.Field)
}

func Test_OnUpdateSettings_ShouldApplyPreferences(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewInMemStorage())

	rec, err := svc.Register(ctx, RegisterRequest{Name: "Max", Email: "max@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = svc.UpdateSettings(ctx, rec.ID, SettingsRequest{
		Currency:   "€",
		DateFormat: "YYYY-MM-DD",
		Timezone:   "Europe/London",
	})
	assert.NoError(t, err)

	updated, err := svc.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "€", updated.Currency)
	assert.Equal(t, "YYYY-MM-DD", updated.DateFormat)
	assert.Equal(t, "Europe/London", updated.Timezone)
}
