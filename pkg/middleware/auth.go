package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"stayd/pkg/logger"
	"stayd/pkg/model"
)

const ActorKey contextKey = "actor"

// ActorClaims is the token payload: standard registered claims plus the
// caller's role. Roles are asserted server-side from this signed token,
// never taken from request bodies or client-local storage.
type ActorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Auth verifies the HS256 bearer token and places the resulting Actor in
// the request context. Requests without a token proceed as guests so that
// public reads (listings, availability) stay open; write operations do
// their own role checks against the actor.
func Auth(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims := &ActorClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !token.Valid {
				log.Warn("Rejected invalid bearer token",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
				return
			}

			actor := model.Actor{
				ID:   claims.Subject,
				Role: model.Role(claims.Role),
			}
			if actor.Role == "" {
				actor.Role = model.RoleGuest
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ActorFrom returns the authenticated actor, or an anonymous guest when
// the request carried no token.
func ActorFrom(ctx context.Context) model.Actor {
	if v := ctx.Value(ActorKey); v != nil {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{Role: model.RoleGuest}
}
