// Package authz resolves the caller of a request from its bearer token and
// gates routes by role. Handlers read the resolved Identity with FromContext
// and pass it on to services explicitly.
package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/auth"
	"github.com/diagnosis/coachbook/pkg/logger"
)

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
	RoleCoach   = "coach"
)

// Identity is the acting user of a request.
type Identity struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IdentityLoader loads the current record of a user. It returns nil, nil when
// the user does not exist.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (*Identity, error)
}

type Gate struct {
	tokens *auth.TokenIssuer
	loader IdentityLoader
}

func NewGate(tokens *auth.TokenIssuer, loader IdentityLoader) *Gate {
	return &Gate{tokens: tokens, loader: loader}
}

type identityKey struct{}

// Authenticate requires a valid bearer token for an existing user.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apperr.Write(w, r, apperr.Auth("Not authorized, no token"))
			return
		}

		claims, err := g.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.DebugContext(r.Context(), "Rejected token", "error", err)
			apperr.Write(w, r, apperr.Auth("Not authorized"))
			return
		}

		id, err := g.loader.LoadIdentity(r.Context(), claims.UserID())
		if err != nil {
			apperr.Write(w, r, apperr.Internal(err))
			return
		}
		if id == nil {
			apperr.Write(w, r, apperr.Auth("Not authorized"))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, *id)
		ctx = logger.WithUserID(ctx, id.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only identities whose role is one of roles. It must run
// after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				apperr.Write(w, r, apperr.Auth("Not authorized"))
				return
			}
			if !allowed[id.Role] {
				apperr.Write(w, r, apperr.Forbidden("Not authorized for this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity attaches id to ctx the way Authenticate does.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}
