// Package auth validates administrator credentials for the token endpoint.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// RoleAdmin is the only role issued by this service.
const RoleAdmin = "admin"

// ErrInvalidCredentials is returned for any credential mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials represents authentication credentials.
type Credentials struct {
	Username string
	Password string
}

// AuthProvider defines the interface for authentication providers.
type AuthProvider interface {
	// ValidateCredentials returns the role of the authenticated user.
	ValidateCredentials(ctx context.Context, creds Credentials) (string, error)

	// Name returns the name of this provider.
	Name() string
}

// AdminProvider accepts a single configured administrator account.
type AdminProvider struct {
	user     string
	password string
}

// NewAdminProvider returns a provider for user/password. Both must be non-empty.
func NewAdminProvider(user, password string) (*AdminProvider, error) {
	if user == "" || password == "" {
		return nil, errors.New("admin user and password must be set")
	}
	return &AdminProvider{user: user, password: password}, nil
}

// ValidateCredentials compares both fields in constant time.
func (p *AdminProvider) ValidateCredentials(_ context.Context, creds Credentials) (string, error) {
	if creds.Username == "" || creds.Password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}
	userMatch := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(p.user)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(p.password)) == 1
	if !userMatch || !passMatch {
		return "", ErrInvalidCredentials
	}
	return RoleAdmin, nil
}

// Name returns the provider name.
func (p *AdminProvider) Name() string { return "admin" }

// AuthService handles authentication business logic.
type AuthService struct {
	provider AuthProvider
}

// NewAuthService creates a new authentication service.
func NewAuthService(provider AuthProvider) *AuthService {
	return &AuthService{provider: provider}
}

// Authenticate validates creds and returns the user's role.
func (s *AuthService) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	return s.provider.ValidateCredentials(ctx, creds)
}

// ProviderName returns the name of the configured provider.
func (s *AuthService) ProviderName() string {
	return s.provider.Name()
}
