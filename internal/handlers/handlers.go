package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"procurement/db"
	"procurement/internal/access"
	"procurement/internal/auth"
	"procurement/internal/files"
	"procurement/internal/logger"
	"procurement/internal/metrics"
	"procurement/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ограничение тела JSON-запроса
const maxJSONBody = 1 << 20

type Options struct {
	MaxUploadBytes   int64
	ExposeResetToken bool
	AllowedOrigins   []string
}

// Handler держит зависимости всех обработчиков
type Handler struct {
	Store   StorageInterface
	Auth    *auth.Service
	Tokens  *auth.TokenService
	Files   files.Store
	Access  *access.Resolver
	Metrics *metrics.Metrics
	Log     *zap.Logger
	opts    Options
}

func NewHandler(store StorageInterface, authSvc *auth.Service, fileStore files.Store, m *metrics.Metrics, log *zap.Logger, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:   store,
		Auth:    authSvc,
		Tokens:  authSvc.Tokens(),
		Files:   fileStore,
		Access:  access.NewResolver(store),
		Metrics: m,
		Log:     log,
		opts:    opts,
	}
}

// envelope тело ответа: message плюс ресурс под своим ключом
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"message": msg})
}

// httpError ошибка с готовым статусом и текстом для клиента
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string {
	return e.message
}

func badRequest(msg string) error {
	return &httpError{status: http.StatusBadRequest, message: msg}
}

func notFound(entity string) error {
	return &httpError{status: http.StatusNotFound, message: entity + " not found"}
}

// lookupErr превращает db.ErrNotFound в 404 для сущности
func lookupErr(err error, entity string) error {
	if errors.Is(err, db.ErrNotFound) {
		return notFound(entity)
	}
	return err
}

type updatePatch interface {
	Validate() error
	Assignments() []models.Assignment
}

// checkPatch null в NOT NULL колонке и пустой патч отклоняются до поиска записи
func checkPatch(p updatePatch) error {
	if err := p.Validate(); err != nil {
		return badRequest(err.Error())
	}
	if len(p.Assignments()) == 0 {
		return db.ErrNoFieldsToUpdate
	}
	return nil
}

// fail единая точка перевода ошибок в HTTP-ответ
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		he *httpError
		ve *auth.ValidationError
		de *access.DeniedError
	)
	switch {
	case errors.As(err, &he):
		writeMessage(w, he.status, he.message)
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &de):
		writeMessage(w, http.StatusForbidden, de.Reason)
	case errors.Is(err, db.ErrNoFieldsToUpdate):
		writeMessage(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrResetTokenInvalid),
		errors.Is(err, auth.ErrResetTokenExpired):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromContext(r.Context(), h.Log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong!")
	}
}

// authorize проверяет правило и считает отказы
func (h *Handler) authorize(r *http.Request, res access.Resource, act access.Action, s access.Subject) error {
	err := access.Authorize(caller(r), res, act, s)
	if err != nil && h.Metrics != nil {
		h.Metrics.AccessDenied(string(res), string(act))
	}
	return err
}

// caller всегда есть за Authenticate
func caller(r *http.Request) access.Caller {
	c, _ := access.CallerFrom(r.Context())
	return c
}

// decodeJSON пустое тело не ошибка: недостающие поля отловит валидация
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("Invalid JSON format")
	}
	return nil
}

func chiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// parseID разбирает числовой параметр пути
func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chiParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid " + name)
	}
	return id, nil
}

func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Welcome to Projectile API")
}

// HealthHandler отвечает OK, если база доступна
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context(), h.Log).Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			"status":    "UNAVAILABLE",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Route not found")
}
