package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
)

type callerKey struct{}

// WithCaller stores the caller identity in ctx.
func WithCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx. Anonymous requests yield a
// zero Caller, which no role check accepts.
func CallerFrom(ctx context.Context) model.Caller {
	c, _ := ctx.Value(callerKey{}).(model.Caller)
	return c
}

// Authenticator turns identity-provider bearer tokens into a typed Caller.
// When a secret is configured the HMAC signature is verified; otherwise the
// token is assumed to have been verified upstream and its claims are read
// as-is.
type Authenticator struct {
	secret    []byte
	roleClaim string
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(secret, roleClaim string) *Authenticator {
	if roleClaim == "" {
		roleClaim = "custom:role"
	}
	return &Authenticator{secret: []byte(secret), roleClaim: roleClaim}
}

// Middleware attaches the caller to the request context. Requests without
// a token pass through anonymously; malformed tokens are rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			next.ServeHTTP(w, r)
			return
		}
		caller, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// Parse extracts the caller from a token string.
func (a *Authenticator) Parse(raw string) (model.Caller, error) {
	claims := jwt.MapClaims{}
	var err error
	if len(a.secret) > 0 {
		_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(raw, claims)
	}
	if err != nil {
		return model.Caller{}, err
	}

	sub, _ := claims.GetSubject()
	c := model.Caller{ID: sub}
	c.Name, _ = claims["name"].(string)
	c.Email, _ = claims["email"].(string)
	if role, _ := claims[a.roleClaim].(string); model.Role(role).Valid() {
		c.Role = model.Role(role)
	}
	return c, nil
}

// Logger is a structured access log middleware.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// CORS allows browser clients from any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
