package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/udnboss/workflow/internal/config"
	"github.com/udnboss/workflow/model"
)

// ActorResolver maps an authenticated subject id to a workflow actor. The
// directory package provides the standard implementation.
type ActorResolver interface {
	Lookup(subjectID string) (model.Actor, error)
}

// JWTAuthenticator returns middleware that verifies HMAC-signed JWT tokens
// from the Authorization header, resolves the subject to an actor through the
// directory, and stores the actor in the request context. Role membership
// always comes from the directory; role claims inside the token are ignored.
func JWTAuthenticator(cfg config.IdentityConfig, secret []byte, resolver ActorResolver) func(http.Handler) http.Handler {
	parseOpts := []jwt.ParserOption{
		jwt.WithValidMethods(cfg.Algorithms),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(cfg.Audience))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				WriteError(w, model.NewUnauthorizedError("Missing authorization header"))
				return
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, model.NewUnauthorizedError("Invalid authorization header format"))
				return
			}
			tokenStr := auth[7:]

			token, err := jwt.Parse(tokenStr,
				func(*jwt.Token) (any, error) { return secret, nil },
				parseOpts...,
			)
			if err != nil {
				WriteError(w, model.NewUnauthorizedError(classifyJWTError(err)))
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				WriteError(w, model.NewUnauthorizedError("Token has no subject"))
				return
			}

			actor, err := resolver.Lookup(subject)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func classifyJWTError(err error) string {
	s := err.Error()
	switch {
	case strings.Contains(s, "expired"):
		return "Token expired"
	case strings.Contains(s, "issuer"):
		return "Invalid token issuer"
	case strings.Contains(s, "audience"):
		return "Invalid token audience"
	case strings.Contains(s, "signing method"):
		return "Disallowed signing algorithm"
	case strings.Contains(s, "signature"):
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}
