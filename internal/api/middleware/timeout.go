package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Timeout проставляет дедлайн контекста каждого запроса. Просроченный
// контекст отменяет запросы к БД и публикацию событий ниже по стеку.
func Timeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
