package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request with zerolog.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			ev := log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Str("request_id", requestID(r)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// CORS allows the storefront and admin pages to call the API from the
// browser. origin may list several origins separated by commas. Preflight
// requests are answered here, before authentication.
func CORS(origin string) func(http.Handler) http.Handler {
	origins := strings.Split(origin, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	if origin == "" {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id", "X-Signature"},
		MaxAge:         300,
	})
}

// Authenticator accepts a bearer token equal to APIKey or, when JWTSecret
// is set, an HS256 JWT signed with it. With neither configured every
// request passes; cmd/api only allows that with the memory store.
type Authenticator struct {
	APIKey    string
	JWTSecret []byte
}

func (a Authenticator) Enabled() bool {
	return a.APIKey != "" || len(a.JWTSecret) > 0
}

func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || !a.valid(strings.TrimSpace(token)) {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a Authenticator) valid(token string) bool {
	if token == "" {
		return false
	}
	if a.APIKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.APIKey)) == 1 {
		return true
	}
	if len(a.JWTSecret) == 0 {
		return false
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.JWTSecret, nil
	})
	return err == nil && parsed.Valid
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
