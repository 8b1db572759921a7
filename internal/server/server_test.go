package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/finance-tracker/internal/model/budget"
	"max.ks1230/finance-tracker/internal/model/budgets"
	"max.ks1230/finance-tracker/internal/model/export"
	"max.ks1230/finance-tracker/internal/model/finance"
	"max.ks1230/finance-tracker/internal/model/storage"
	"max.ks1230/finance-tracker/internal/model/transactions"
	"max.ks1230/finance-tracker/internal/model/users"
)

var errCacheMiss = errors.New("cache miss")

type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (c *fakeCache) key(userID int64, endpoint, option string) string {
	return endpoint + ":" + option
}

func (c *fakeCache) CachePayload(userID int64, endpoint, option string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[c.key(userID, endpoint, option)] = payload
	return nil
}

func (c *fakeCache) GetPayload(userID int64, endpoint, option string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.items[c.key(userID, endpoint, option)]
	if !ok {
		return nil, errCacheMiss
	}
	return payload, nil
}

func (c *fakeCache) Invalidate(userID int64, endpoints, options []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, endpoint := range endpoints {
		for _, opt := range options {
			delete(c.items, c.key(userID, endpoint, opt))
		}
	}
	return nil
}

type staticAuth struct{}

func (staticAuth) JWTSecret() string    { return "test-secret" }
func (staticAuth) TokenTTLHours() int64 { return 1 }

func newTestServer(t *testing.T) (*Server, *fakeCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewInMemStorage()
	evaluator := budget.NewEvaluator(store)
	cache := newFakeCache()

	srv := New(
		users.NewService(store),
		transactions.NewService(store),
		budgets.NewService(store, evaluator),
		finance.NewService(store, evaluator),
		export.NewService(store),
		store,
		cache,
		staticAuth{},
	)
	return srv, cache
}

func doJSON(srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(srv, http.MethodPost, "/register", "",
		`{"name":"Max","email":"max@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func firstExpenseCategoryID(t *testing.T, srv *Server, token string) int64 {
	t.Helper()
	w := doJSON(srv, http.MethodGet, "/categories", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExpenseCategories []struct {
			ID int64 `json:"ID"`
		} `json:"expense_categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ExpenseCategories)
	return resp.ExpenseCategories[0].ID
}

func Test_OnDashboard_WithoutToken_ShouldReturnUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(srv, http.MethodGet, "/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_OnRegister_ThenDashboard_ShouldReturnOverview(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	w := doJSON(srv, http.MethodGet, "/dashboard", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance"`)
	assert.Contains(t, w.Body.String(), `"trend_labels"`)
}

func Test_OnLogin_WithWrongPassword_ShouldReturnUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv)

	w := doJSON(srv, http.MethodPost, "/login", "",
		`{"email":"max@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_OnDashboard_WithUnknownTimeframe_ShouldReturnBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	w := doJSON(srv, http.MethodGet, "/dashboard?timeframe=week", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_OnChartData_ShouldRejectReportVocabulary(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	w := doJSON(srv, http.MethodGet, "/dashboard/chart-data?timeframe=month", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(srv, http.MethodGet, "/dashboard/chart-data?timeframe=This+Month", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func Test_OnTransactionAdd_ShouldInvalidateCachedCharts(t *testing.T) {
	srv, cache := newTestServer(t)
	token := registerAndLogin(t, srv)
	categoryID := firstExpenseCategoryID(t, srv, token)

	w := doJSON(srv, http.MethodGet, "/dashboard/chart-data?timeframe=This+Month", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, err := cache.GetPayload(1, chartEndpoint, "This Month")
	require.NoError(t, err)

	w = doJSON(srv, http.MethodPost, "/transactions/add", token,
		`{"category_id":`+jsonInt(categoryID)+`,"amount":"42.50","type":"expense","description":"groceries","date":"2024-03-10"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	_, err = cache.GetPayload(1, chartEndpoint, "This Month")
	assert.ErrorIs(t, err, errCacheMiss)
}

func Test_OnTransactionAdd_WithMalformedBody_ShouldReturnBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	w := doJSON(srv, http.MethodPost, "/transactions/add", token, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_OnBudgetAdd_Twice_ShouldReturnConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)
	categoryID := firstExpenseCategoryID(t, srv, token)

	body := `{"category_id":` + jsonInt(categoryID) + `,"limit_amount":"300","timeframe":"monthly"}`

	w := doJSON(srv, http.MethodPost, "/budgets/add", token, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(srv, http.MethodPost, "/budgets/add", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func Test_OnExport_ShouldServeCSVAttachment(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv)

	w := doJSON(srv, http.MethodGet, "/reports/export?timeframe=month", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "finance_report_month_")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Date,Type,Category,Description,Amount"))
}

func jsonInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
