package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/integration"
	"github.com/go-chi/cors"
)

// NewCORS строит CORS из конфигурации. Заголовок операции разрешен и виден
// браузеру всегда, даже если его забыли указать в конфиге.
func NewCORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   withMethod(cfg.AllowedMethods, http.MethodDelete),
		AllowedHeaders:   withHeader(cfg.AllowedHeaders, integration.OperationHeader),
		ExposedHeaders:   withHeader(cfg.ExposedHeaders, integration.OperationHeader),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

func withHeader(headers []string, header string) []string {
	for _, h := range headers {
		if h == "*" || strings.EqualFold(h, header) {
			return headers
		}
	}
	return append(slices.Clip(headers), header)
}

// DELETE нужен странице, чтобы скрыть уведомление.
func withMethod(methods []string, method string) []string {
	if len(methods) == 0 || slices.Contains(methods, method) {
		return methods
	}
	return append(slices.Clip(methods), method)
}
