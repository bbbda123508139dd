package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const ApiTokenHeader = "X-Api-Token"

type tokenChecker func(token, hash string) bool

// AuthMiddlewareHandler lets a request through when its X-Api-Token matches the
// configured bcrypt hash. A few paths are always open.
type AuthMiddlewareHandler struct {
	apiTokenHash         string
	checkToken           tokenChecker
	allowedPaths         map[string]bool
	allowedPathsPrefixes []string

	// bcrypt is slow on purpose, a token that matched once is not checked again
	verifiedMutex sync.RWMutex
	verified      map[string]bool
}

func NewAuthMiddlewareHandler(apiTokenHash string) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		apiTokenHash: apiTokenHash,
		checkToken:   pkg.CheckTokenHash,
		allowedPaths: map[string]bool{
			"/":        true,
			"/health":  true,
			"/version": true,
		},
		allowedPathsPrefixes: []string{
			"/debug/",
		},
		verified: make(map[string]bool),
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (h *AuthMiddlewareHandler) tokenValid(token string) bool {
	h.verifiedMutex.RLock()
	ok := h.verified[token]
	h.verifiedMutex.RUnlock()
	if ok {
		return true
	}

	if !h.checkToken(token, h.apiTokenHash) {
		return false
	}
	h.verifiedMutex.Lock()
	h.verified[token] = true
	h.verifiedMutex.Unlock()
	return true
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get(ApiTokenHeader)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			if !h.tokenValid(authToken) {
				log.Warnf("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
