package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/praxis-pm/praxis/internal/platform/httpx"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Authenticator resolves bearer tokens into request principals.
type Authenticator struct {
	tokens *TokenManager
	logger *slog.Logger
}

// NewAuthenticator builds an Authenticator instance.
func NewAuthenticator(tokens *TokenManager, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, logger: logger}
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		principal, err := a.tokens.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, shared.ErrInvalidCredentials) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
				return
			}
			a.logger.Error("resolve token", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not resolve token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
