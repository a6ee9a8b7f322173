package testutils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"procurement/internal/access"

	"github.com/go-chi/chi/v5"
)

// NewHandlerRequest запрос для прямого вызова обработчика без роутера:
// параметры пути кладутся в контекст chi, вызывающий в контекст access, как это делает Authenticate.
func NewHandlerRequest(method, target string, body io.Reader, c access.Caller, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(access.WithCaller(ctx, c))
}
