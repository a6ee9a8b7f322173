package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"procurement/internal/access"
	"procurement/internal/auth"
	"procurement/internal/files"
	"procurement/internal/handlers"
	"procurement/internal/handlers/testutils"
	"procurement/internal/mail"
	"procurement/internal/metrics"
	"procurement/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var _ handlers.StorageInterface = (*testutils.MemStore)(nil)

type testEnv struct {
	t       *testing.T
	store   *testutils.MemStore
	files   *files.LocalStore
	tokens  *auth.TokenService
	handler *handlers.Handler
	router  http.Handler
}

func newTestEnv(t *testing.T, opts handlers.Options) *testEnv {
	t.Helper()
	store := testutils.NewMemStore()
	fileStore, err := files.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := auth.NewService(store, auth.NewBcryptHasher(), tokens, mail.NewLogNotifier(zap.NewNop()), auth.Options{})
	t.Cleanup(svc.Wait)
	h := handlers.NewHandler(store, svc, fileStore, metrics.New("test"), zaptest.NewLogger(t), opts)

	return &testEnv{
		t:       t,
		store:   store,
		files:   fileStore,
		tokens:  tokens,
		handler: h,
		router:  handlers.NewRouter(h),
	}
}

// seedUser создаёт пользователя прямо в хранилище и выдаёт ему токен
func (e *testEnv) seedUser(role models.Role, name string) (*models.User, string) {
	e.t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(e.t, e.store.CreateUser(context.Background(), u))
	token, err := e.tokens.Issue(u)
	require.NoError(e.t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireMessage(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decodeBody[struct {
		Message string `json:"message"`
	}](t, w)
	require.Equal(t, message, body.Message)
}

func idPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

func (e *testEnv) createProject(token, name string) models.Project {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/projects", token, map[string]any{
		"name":        name,
		"description": "site works",
		"location":    "Pune",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[struct {
		Project models.Project `json:"project"`
	}](e.t, w).Project
}

func (e *testEnv) createRfq(token string, projectID int64, status string) models.Rfq {
	e.t.Helper()
	body := map[string]any{"project_id": projectID, "title": "Cement supply", "deadline": "2025-12-31"}
	if status != "" {
		body["status"] = status
	}
	w := e.do(http.MethodPost, "/api/rfqs", token, body)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[struct {
		Rfq models.Rfq `json:"rfq"`
	}](e.t, w).Rfq
}

func (e *testEnv) submitQuote(token string, rfqID, vendorID int64, amount float64) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.do(http.MethodPost, "/api/quotes", token, map[string]any{
		"rfq_id":       rfqID,
		"vendor_id":    vendorID,
		"total_amount": amount,
	})
}

type quoteBody struct {
	Message string `json:"message"`
	Quote   struct {
		models.Quote
		ProjectDetails *struct {
			ID      int64 `json:"id"`
			OwnerID int64 `json:"owner_id"`
		} `json:"project_details"`
		RfqDetails *struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"rfq_details"`
		VendorDetails *struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"vendor_details"`
	} `json:"quote"`
}

func registerPayload(name string, role models.Role) map[string]any {
	return map[string]any{
		"name":           name,
		"email":          name + "@example.com",
		"password":       "secret-" + name,
		"role":           role,
		"company_name":   name + " Ltd",
		"contact_person": name,
		"gst_number":     "27ABCDE1234F1Z5",
	}
}

type authBody struct {
	Message    string      `json:"message"`
	User       models.User `json:"user"`
	Token      string      `json:"token"`
	ResetToken string      `json:"resetToken"`
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	requireMessage(t, env.do(http.MethodGet, "/", "", nil), http.StatusOK, "Welcome to Projectile API")

	w := env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"OK"`)

	env.store.Fail["Ping"] = io.ErrUnexpectedEOF
	w = env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouteNotFound(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	_, token := env.seedUser(models.RoleAdmin, "root")

	requireMessage(t, env.do(http.MethodGet, "/api/unknown", "", nil), http.StatusNotFound, "Route not found")
	requireMessage(t, env.do(http.MethodGet, "/api/projects/1/extra", token, nil), http.StatusNotFound, "Route not found")
	requireMessage(t, env.do(http.MethodPatch, "/api/projects/1", token, nil), http.StatusNotFound, "Route not found")
}

func TestAuthenticationRequired(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	u, _ := env.seedUser(models.RoleProjectOwner, "owner")

	requireMessage(t, env.do(http.MethodGet, "/api/projects", "", nil),
		http.StatusUnauthorized, "Authentication required. Please provide a valid token.")

	requireMessage(t, env.do(http.MethodGet, "/api/projects", "not-a-jwt", nil),
		http.StatusUnauthorized, "Invalid or expired token")

	foreign, err := auth.NewTokenService("other-secret", time.Hour).Issue(u)
	require.NoError(t, err)
	requireMessage(t, env.do(http.MethodGet, "/api/projects", foreign, nil),
		http.StatusUnauthorized, "Invalid or expired token")
}

func TestScenarioVendorQuotesOpenRfq(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	w := env.do(http.MethodPost, "/api/auth/register", "", registerPayload("vendor", models.RoleVendor))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	vendor := decodeBody[authBody](t, w)
	require.Equal(t, "User registered successfully", vendor.Message)
	require.NotEmpty(t, vendor.Token)
	require.NotContains(t, w.Body.String(), "password")

	w = env.do(http.MethodPost, "/api/auth/register", "", registerPayload("owner", models.RoleProjectOwner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	owner := decodeBody[authBody](t, w)

	project := env.createProject(owner.Token, "Warehouse")
	require.Equal(t, owner.User.ID, project.OwnerID)
	require.True(t, strings.HasPrefix(project.CustomID, "PROJ_"))

	rfq := env.createRfq(owner.Token, project.ID, models.RfqStatusOpen)
	require.Equal(t, models.RfqStatusOpen, rfq.Status)
	require.NotNil(t, rfq.ProjectCustomID)
	require.Equal(t, project.CustomID, *rfq.ProjectCustomID)

	w = env.submitQuote(vendor.Token, rfq.ID, vendor.User.ID, 1000)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quote := decodeBody[quoteBody](t, w)
	require.Equal(t, "Quote created successfully", quote.Message)
	require.Equal(t, 1000.0, quote.Quote.TotalAmount)
	require.Equal(t, models.QuoteStatusSubmitted, quote.Quote.Status)
	require.True(t, strings.HasPrefix(quote.Quote.CustomID, "QUOT_"))
	require.NotNil(t, quote.Quote.RfqCustomID)
	require.Equal(t, rfq.CustomID, *quote.Quote.RfqCustomID)
	require.NotNil(t, quote.Quote.VendorDetails)
	require.Equal(t, vendor.User.ID, quote.Quote.VendorDetails.ID)
	require.NotNil(t, quote.Quote.ProjectDetails)
	require.Equal(t, owner.User.ID, quote.Quote.ProjectDetails.OwnerID)
	require.NotNil(t, quote.Quote.RfqDetails)
	require.Equal(t, "Cement supply", quote.Quote.RfqDetails.Title)
}

func TestScenarioClosedRfqRejectsVendorQuote(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	vendor, vendorToken := env.seedUser(models.RoleVendor, "vendor")
	_, ownerToken := env.seedUser(models.RoleProjectOwner, "owner")

	project := env.createProject(ownerToken, "Warehouse")
	rfq := env.createRfq(ownerToken, project.ID, models.RfqStatusOpen)

	w := env.do(http.MethodPut, idPath("/api/rfqs/", rfq.ID), ownerToken, map[string]any{"status": models.RfqStatusClosed})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	requireMessage(t, env.submitQuote(vendorToken, rfq.ID, vendor.ID, 1000),
		http.StatusBadRequest, "Cannot submit quote for closed RFQ")

	// владелец может занести котировку за поставщика и по закрытому RFQ
	w = env.submitQuote(ownerToken, rfq.ID, vendor.ID, 1000)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestScenarioVendorCannotListOtherVendorsQuotes(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	vendor, vendorToken := env.seedUser(models.RoleVendor, "vendor")
	_, otherToken := env.seedUser(models.RoleVendor, "rival")
	_, ownerToken := env.seedUser(models.RoleProjectOwner, "owner")

	project := env.createProject(ownerToken, "Warehouse")
	rfq := env.createRfq(ownerToken, project.ID, "")
	require.Equal(t, http.StatusCreated, env.submitQuote(vendorToken, rfq.ID, vendor.ID, 500).Code)

	requireMessage(t, env.do(http.MethodGet, idPath("/api/quotes/vendor/", vendor.ID), otherToken, nil),
		http.StatusForbidden, "Access denied. You do not own this vendor account.")

	w := env.do(http.MethodGet, idPath("/api/quotes/vendor/", vendor.ID), vendorToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quotes := decodeBody[struct {
		Quotes []quoteBody `json:"quotes"`
	}](t, w)
	require.Len(t, quotes.Quotes, 1)
}

func TestScenarioForgotPasswordDoesNotLeakAccounts(t *testing.T) {
	env := newTestEnv(t, handlers.Options{ExposeResetToken: true})

	w := env.do(http.MethodPost, "/api/auth/register", "", registerPayload("owner", models.RoleProjectOwner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	unknown := env.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, unknown.Code)
	unknownBody := decodeBody[authBody](t, unknown)
	require.Empty(t, unknownBody.ResetToken)

	known := env.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "owner@example.com"})
	require.Equal(t, http.StatusOK, known.Code)
	knownBody := decodeBody[authBody](t, known)
	require.Equal(t, unknownBody.Message, knownBody.Message)
	require.NotEmpty(t, knownBody.ResetToken)

	reset := map[string]string{"token": knownBody.ResetToken, "newPassword": "brand-new"}
	requireMessage(t, env.do(http.MethodPost, "/api/auth/reset-password", "", reset), http.StatusOK, "Password reset successfully")
	requireMessage(t, env.do(http.MethodPost, "/api/auth/reset-password", "", reset), http.StatusBadRequest, "Invalid or expired reset token")

	requireMessage(t, env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "secret-owner",
	}), http.StatusUnauthorized, "Invalid email or password")

	w = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "brand-new",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Login successful", decodeBody[authBody](t, w).Message)
}

func TestForgotPasswordHidesTokenByDefault(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	env.seedUser(models.RoleVendor, "vendor")

	w := env.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "vendor@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "resetToken")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	payload := registerPayload("owner", "superuser")
	requireMessage(t, env.do(http.MethodPost, "/api/auth/register", "", payload),
		http.StatusBadRequest, "Invalid role. Must be one of: project_owner, vendor, admin")

	payload = registerPayload("owner", models.RoleProjectOwner)
	delete(payload, "gst_number")
	requireMessage(t, env.do(http.MethodPost, "/api/auth/register", "", payload),
		http.StatusBadRequest, "GST number is required")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	requireMessage(t, w, http.StatusBadRequest, "Invalid JSON format")
}

func TestScenarioListAllQuotesIsAdminOnly(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	vendor, vendorToken := env.seedUser(models.RoleVendor, "vendor")
	_, ownerToken := env.seedUser(models.RoleProjectOwner, "owner")
	_, adminToken := env.seedUser(models.RoleAdmin, "admin")

	project := env.createProject(ownerToken, "Warehouse")
	rfq := env.createRfq(ownerToken, project.ID, "")
	require.Equal(t, http.StatusCreated, env.submitQuote(vendorToken, rfq.ID, vendor.ID, 100).Code)
	require.Equal(t, http.StatusCreated, env.submitQuote(vendorToken, rfq.ID, vendor.ID, 200).Code)

	w := env.do(http.MethodGet, "/api/quotes", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	all := decodeBody[struct {
		Quotes []models.Quote `json:"quotes"`
	}](t, w)
	require.Len(t, all.Quotes, 2)
	require.Equal(t, 200.0, all.Quotes[0].TotalAmount, "newest first")

	requireMessage(t, env.do(http.MethodGet, "/api/quotes", ownerToken, nil),
		http.StatusForbidden, "Access denied. Admin access required.")

	metricsBody := env.do(http.MethodGet, "/metrics", "", nil).Body.String()
	require.Contains(t, metricsBody, `test_access_denied_total{action="list",resource="quote"} 1`)
}

// прямой вызов обработчика, как при монтировании в роутер
func TestGetProjectHandlerDirect(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	owner, _ := env.seedUser(models.RoleProjectOwner, "owner")

	project := &models.Project{CustomID: "PROJ_ABC_1234", Name: "Depot", OwnerID: owner.ID}
	require.NoError(t, env.store.CreateProject(context.Background(), project))

	req := testutils.NewHandlerRequest(http.MethodGet, "/api/projects/1", nil,
		access.Caller{ID: owner.ID, Role: owner.Role},
		map[string]string{"id": strconv.FormatInt(project.ID, 10)})
	w := httptest.NewRecorder()

	env.handler.GetProjectHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "PROJ_ABC_1234")
	require.Contains(t, string(body), "Project retrieved successfully")
}

func TestHandlersCheckOrderDirect(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	owner, _ := env.seedUser(models.RoleProjectOwner, "owner")
	stranger, _ := env.seedUser(models.RoleProjectOwner, "stranger")
	ctx := context.Background()

	project := &models.Project{CustomID: "PROJ_ABC_1234", Name: "Depot", OwnerID: owner.ID}
	require.NoError(t, env.store.CreateProject(ctx, project))
	rfq := &models.Rfq{
		CustomID:  "RFQ_ABC_1234",
		ProjectID: project.ID,
		Title:     "Cement supply",
		Deadline:  models.NewDate(2025, time.December, 31),
		Status:    models.RfqStatusOpen,
	}
	require.NoError(t, env.store.CreateRfq(ctx, rfq))

	ownerCaller := access.Caller{ID: owner.ID, Role: owner.Role}
	rfqID := strconv.FormatInt(rfq.ID, 10)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		id      string
		body    string
		caller  access.Caller
		status  int
		message string
	}{
		{"malformed id", env.handler.UpdateProjectHandler, http.MethodPut, "abc", `{"name":"x"}`, ownerCaller,
			http.StatusBadRequest, "Invalid id"},
		{"missing project", env.handler.UpdateProjectHandler, http.MethodPut, "999", `{"name":"x"}`, ownerCaller,
			http.StatusNotFound, "Project not found"},
		{"null before lookup", env.handler.UpdateRfqHandler, http.MethodPut, "999", `{"title":null}`, ownerCaller,
			http.StatusBadRequest, "Field title cannot be null"},
		{"empty patch before lookup", env.handler.UpdateRfqHandler, http.MethodPut, "999", `{}`, ownerCaller,
			http.StatusBadRequest, "No fields to update"},
		{"foreign rfq", env.handler.DeleteRfqHandler, http.MethodDelete, rfqID, "", access.Caller{ID: stranger.ID, Role: stranger.Role},
			http.StatusForbidden, "Access denied. You do not own this project."},
		{"own rfq", env.handler.DeleteRfqHandler, http.MethodDelete, rfqID, "", ownerCaller,
			http.StatusOK, "RFQ deleted successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := testutils.NewHandlerRequest(tt.method, "/", body, tt.caller, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()
			tt.handler(w, req)
			requireMessage(t, w, tt.status, tt.message)
		})
	}
}
