package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/xavierca1/products-cms/internal/usecase"
)

type SessionConfig struct {
	CookieName   string
	ActorHeader  string
	DefaultActor string
	Secure       bool
	// TokenSecret, when set, makes a signed bearer token the preferred
	// source of the actor.
	TokenSecret []byte
}

type actorClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type sessionKey struct{}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Session makes sure every request carries a console session id, issuing
// a cookie on first contact.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
		})
	}
}

// Actor takes the authenticated user from a bearer token or from the header
// set by the auth proxy. Without either the configured default actor is
// used; with none the request is refused. A bad token is always refused.
func Actor(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var actor string
			if raw, ok := bearerToken(r); ok && len(cfg.TokenSecret) > 0 {
				name, err := actorFromToken(raw, cfg.TokenSecret)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				actor = name
			}
			if actor == "" {
				actor = strings.TrimSpace(r.Header.Get(cfg.ActorHeader))
			}
			if actor == "" {
				actor = cfg.DefaultActor
			}
			if actor == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(usecase.WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

func actorFromToken(raw string, secret []byte) (string, error) {
	claims := &actorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrSignatureInvalid
	}

	actor := strings.TrimSpace(claims.Name)
	if actor == "" {
		actor = strings.TrimSpace(claims.Subject)
	}
	if actor == "" {
		return "", errors.New("token names no actor")
	}
	return actor, nil
}
