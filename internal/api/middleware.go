package api

import (
	"context"
	"net/http"
)

// IdentityHeader carries the authenticated identity id, set by the edge
// proxy after it has verified the user's session. Requests arriving
// without it are unauthenticated.
const IdentityHeader = "X-Identity-Id"

type identityCtxKey struct{}

// requireIdentity rejects requests without an identity header and stashes
// the id in the request context.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(IdentityHeader)
		if id == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		ctx := context.WithValue(r.Context(), identityCtxKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFromContext returns the authenticated identity id. Only valid
// below requireIdentity.
func identityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityCtxKey{}).(string)
	return id
}
