// Package auth issues and verifies the administrator JWTs that guard the cache
// and history endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"summarize-pro/internal/handler/http/requestid"
	"summarize-pro/internal/handler/http/respond"
	authservice "summarize-pro/internal/service/auth"
)

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. Tokens expire after expiry.
func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue returns a signed token for sub with role, and its expiry time.
func (i *Issuer) Issue(sub, role string) (string, time.Time, error) {
	exp := i.now().Add(i.expiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  i.now().Unix(),
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses raw and returns its subject and role.
func (i *Issuer) Verify(raw string) (sub, role string, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", "", errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}
	sub, ok = claims["sub"].(string)
	if !ok {
		return "", "", errors.New("invalid sub claim")
	}
	role, ok = claims["role"].(string)
	if !ok {
		return "", "", errors.New("invalid role claim")
	}
	return sub, role, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenHandler exchanges administrator credentials for a JWT.
// The username may be sent as "username" or "email".
func TokenHandler(svc *authservice.AuthService, issuer *Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := slog.With(slog.String("request_id", requestid.FromContext(r.Context())))

		fail := func(code int, reason string, err error) {
			logger.Warn("authentication failed",
				slog.String("reason", reason),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest("unknown", "failure")
			RecordAuthDuration("unknown", time.Since(start).Seconds())
			respond.SafeError(w, code, err)
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
			return
		}
		username := strings.TrimSpace(req.Username)
		if username == "" {
			username = strings.TrimSpace(req.Email)
		}

		role, err := svc.Authenticate(r.Context(), authservice.Credentials{Username: username, Password: req.Password})
		if err != nil {
			fail(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid credentials"))
			return
		}

		signed, exp, err := issuer.Issue(username, role)
		if err != nil {
			logger.Error("token generation failed", slog.Any("error", err))
			RecordAuthRequest(role, "failure")
			RecordAuthDuration(role, time.Since(start).Seconds())
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}

		logger.Info("authentication successful",
			slog.String("role", role),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		RecordAuthRequest(role, "success")
		RecordAuthDuration(role, time.Since(start).Seconds())

		respond.JSON(w, http.StatusOK, tokenResponse{Token: signed, ExpiresAt: exp.UTC()})
	}
}
