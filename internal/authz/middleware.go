package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/httputil"
	"github.com/kidhood/bird-trading-platform/pkg/logger"
)

type contextKey struct{}

var identityKey contextKey

// ContextWithIdentity stores the caller identity in the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// IdentityResolver turns a verified bearer token into a caller identity.
type IdentityResolver func(token string) (*Identity, error)

// Middleware authenticates the request's bearer token (when present), stores
// the resulting Identity in the context, and enforces the evaluator's
// decision. Denials map to 401 for anonymous callers and 403 for
// authenticated ones. A present-but-invalid token is always 401, even on
// paths that would otherwise allow anonymous access past the allow-list.
func Middleware(resolve IdentityResolver, evaluator *Evaluator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var identity *Identity
			if token, ok := bearerToken(r); ok {
				id, err := resolve(token)
				if err != nil {
					httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), l)
					return
				}
				identity = id
				ctx = ContextWithIdentity(ctx, identity)
				ctx = logger.WithAccountID(ctx, identity.AccountID)
			}

			if evaluator.Decide(r.URL.Path, r.Method, identity) == Deny {
				if identity.Anonymous() {
					httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), l)
				} else {
					httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), l)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
