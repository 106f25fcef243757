package middleware

import (
	"context"
	"net/http"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
)

type contextKey string

// UserIDKey ключ контекста с ID аутентифицированного пользователя
const UserIDKey contextKey = "userID"

// HeaderUserID заголовок, проставляемый API gateway после аутентификации
const HeaderUserID = "X-User-ID"

// Auth проверяет наличие X-User-ID и кладет его в контекст запроса
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			handlers.RespondUnauthorized(w, "отсутствует заголовок X-User-ID")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID возвращает ID пользователя, положенный Auth middleware
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
