package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
)

var (
	// ErrTokenMissing is returned when no bearer token is present.
	ErrTokenMissing = errors.New("auth: bearer token missing")
	// ErrTokenInvalid is returned for tokens that fail verification.
	ErrTokenInvalid = errors.New("auth: bearer token invalid")
)

// Claims is the JWT payload accepted by the API.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
	logger zerolog.Logger
}

// NewAuthenticator creates an Authenticator from configuration.
func NewAuthenticator(cfg config.AuthConfig, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Authenticate verifies a raw token and returns the identity it carries.
func (a *Authenticator) Authenticate(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, nil
}

// RequireAuth authenticates the request and, when roles are given, requires
// the caller to hold at least one of them. Missing or invalid tokens get 401,
// missing roles get 403.
func (a *Authenticator) RequireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Missing or malformed bearer token")
				return
			}

			identity, err := a.Authenticate(tokenStr)
			if err != nil {
				a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
				respondAuthError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Invalid or expired token")
				return
			}

			if len(roles) > 0 && !identity.HasAnyRole(roles...) {
				a.logger.Warn().
					Str("user_id", identity.UserID).
					Strs("required_roles", roles).
					Str("path", r.URL.Path).
					Msg("access denied")
				respondAuthError(w, http.StatusForbidden, model.ErrCodeForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// Issuer signs tokens with the shared secret. It backs the development token
// tool and tests.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl defaults to one hour.
func NewIssuer(cfg config.AuthConfig, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for the given identity.
func (i *Issuer) Issue(identity Identity) (string, error) {
	now := i.now()
	claims := Claims{
		Email: identity.Email,
		Roles: identity.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="shopcart"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: code, Message: message})
}
