// pkg/middleware/auth.go
package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"feedhunt/internal/metrics"
	"feedhunt/internal/token"
)

type contextKey string

// UserIDKey — id аутентифицированного пользователя в контексте запроса
const UserIDKey contextKey = "user_id"

// TokenVerifier проверяет предъявленный opaque-токен.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString, expectedPurpose string) (*token.Credential, error)
}

// TokenAuth возвращает middleware, проверяющий access-токен из
// заголовка Authorization: Bearer. Принципал резолвится один раз
// и кладётся в контекст под UserIDKey.
func TokenAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				unauthorized(w)
				return
			}

			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w)
				return
			}

			c, err := verifier.Verify(r.Context(), parts[1], token.PurposeAccess)
			if err != nil {
				// причину наружу не отдаём, только 401
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, c.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	metrics.BearerRejectionsTotal.Inc()
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// BasicAuth возвращает middleware для базовой аутентификации (метрики)
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Basic" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			pair := strings.SplitN(string(payload), ":", 2)
			if len(pair) != 2 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Проверяем учетные данные с константным временем сравнения
			if !constantTimeCompare(pair[0], username) || !constantTimeCompare(pair[1], password) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// constantTimeCompare сравнивает две строки за константное время для предотвращения атак по времени
func constantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	result := 0
	for i := range a {
		result |= int(a[i] ^ b[i])
	}
	return result == 0
}
