package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"procurement/internal/auth"
	"procurement/internal/handlers"
	"procurement/internal/handlers/testutils"
	"procurement/internal/mail"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedHandler(t *testing.T, opts handlers.Options) (*handlers.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	store := testutils.NewMemStore()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := auth.NewService(store, auth.NewBcryptHasher(), tokens, mail.NewLogNotifier(zap.NewNop()), auth.Options{})
	return handlers.NewHandler(store, svc, nil, nil, zap.New(core), opts), logs
}

func TestCORS(t *testing.T) {
	h, _ := newObservedHandler(t, handlers.Options{AllowedOrigins: []string{"http://localhost:5173"}})
	router := handlers.NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Less(t, w.Code, 300)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, http.MethodPost, w.Header().Get("Access-Control-Allow-Methods"))

	// без настроенных origin кросс-доменные запросы не разрешены
	closed, _ := newObservedHandler(t, handlers.Options{})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	handlers.NewRouter(closed).ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovererReturnsJSON(t *testing.T) {
	h, logs := newObservedHandler(t, handlers.Options{})
	panicking := h.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	panicking.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	requireMessage(t, w, http.StatusInternalServerError, "Something went wrong!")
	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	require.Equal(t, "boom", entries[0].ContextMap()["panic"])
}

func TestRequestLoggerCarriesRequestID(t *testing.T) {
	h, logs := newObservedHandler(t, handlers.Options{})
	router := handlers.NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-42", fields["request_id"])
	require.Equal(t, int64(http.StatusNotFound), fields["status"])
	require.Equal(t, "/missing", fields["path"])
}
