package users

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/entity/user"
	"max.ks1230/finance-tracker/internal/logger"
	"max.ks1230/finance-tracker/internal/model/customerr"
)

var defaultExpenseCategories = []string{
	"Housing", "Transportation", "Food", "Utilities",
	"Insurance", "Healthcare", "Entertainment",
	"Personal Care", "Education", "Gifts", "Other",
}

var defaultIncomeCategories = []string{
	"Salary", "Bonus", "Allowance", "Petty Cash",
	"Investment", "Interest", "Rental", "Other Income",
}

// ErrInvalidCredentials is returned on any login failure. It never says
// whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

type userStorage interface {
	CreateUser(ctx context.Context, rec user.Record) (int64, error)
	UserByEmail(ctx context.Context, email string) (user.Record, error)
	UserByID(ctx context.Context, id int64) (user.Record, error)
	UpdateUser(ctx context.Context, rec user.Record) error
	CreateCategories(ctx context.Context, categories []ledger.Category) error
}

// Service handles registration, authentication and preference updates.
type Service struct {
	storage userStorage
}

func NewService(storage userStorage) *Service {
	return &Service{storage: storage}
}

// RegisterRequest is the typed registration input.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Register creates the user with a bcrypt password hash and seeds the
// default category set.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (user.Record, error) {
	if err := validateRegister(req); err != nil {
		return user.Record{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.storage.UserByEmail(ctx, email); err == nil {
		return user.Record{}, &customerr.ConflictError{Err: "email already exists"}
	} else if !isNotFound(err) {
		return user.Record{}, errors.Wrap(err, "register")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.Record{}, errors.Wrap(err, "register")
	}

	rec := user.Record{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	id, err := s.storage.CreateUser(ctx, rec)
	if err != nil {
		return user.Record{}, errors.Wrap(err, "register")
	}
	rec.ID = id

	if err = s.storage.CreateCategories(ctx, defaultCategories(id)); err != nil {
		return user.Record{}, errors.Wrap(err, "register")
	}

	logger.Info("user registered", zap.Int64("userID", id))
	return rec, nil
}

// Authenticate checks the email/password pair and returns the user record.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.Record, error) {
	rec, err := s.storage.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return user.Record{}, ErrInvalidCredentials
		}
		return user.Record{}, errors.Wrap(err, "authenticate")
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return user.Record{}, ErrInvalidCredentials
	}
	return rec, nil
}

// GetByID loads a user record.
func (s *Service) GetByID(ctx context.Context, id int64) (user.Record, error) {
	rec, err := s.storage.UserByID(ctx, id)
	return rec, errors.Wrap(err, "get user")
}

// SettingsRequest is the typed preferences input. Password fields are
// optional; both must be set to change the password.
type SettingsRequest struct {
	Name            string
	Email           string
	Currency        string
	DateFormat      string
	Timezone        string
	CurrentPassword string
	NewPassword     string
}

// UpdateSettings applies preference changes and optionally rotates the
// password after verifying the current one.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, req SettingsRequest) error {
	rec, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "update settings")
	}

	if req.Name != "" {
		rec.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		rec.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	rec.Currency = req.Currency
	rec.DateFormat = req.DateFormat
	rec.Timezone = req.Timezone

	if req.CurrentPassword != "" && req.NewPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return &customerr.ValidationError{Field: "current_password", Reason: "current password is incorrect"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "update settings")
		}
		rec.PasswordHash = string(hash)
	}

	return errors.Wrap(s.storage.UpdateUser(ctx, rec), "update settings")
}

func validateRegister(req RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &customerr.ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(req.Email) == "" {
		return &customerr.ValidationError{Field: "email", Reason: "required"}
	}
	if req.Password == "" {
		return &customerr.ValidationError{Field: "password", Reason: "required"}
	}
	return nil
}

func defaultCategories(userID int64) []ledger.Category {
	nowTime := time.Now()
	categories := make([]ledger.Category, 0, len(defaultExpenseCategories)+len(defaultIncomeCategories))
	for _, name := range defaultExpenseCategories {
		categories = append(categories, ledger.Category{
			UserID:    userID,
			Name:      name,
			Kind:      ledger.KindExpense,
			CreatedAt: nowTime,
		})
	}
	for _, name := range defaultIncomeCategories {
		categories = append(categories, ledger.Category{
			UserID:    userID,
			Name:      name,
			Kind:      ledger.KindIncome,
			CreatedAt: nowTime,
		})
	}
	return categories
}

func isNotFound(err error) bool {
	var notFound *customerr.NotFoundError
	return errors.As(err, &notFound)
}
