// Package auth provides password accounts and bearer tokens.
package auth

import (
	"context"
	"time"

	"github.com/mmynk/platepick/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// Services depend on it rather than on a concrete credential scheme.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// Config holds the token settings.
type Config struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=32"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

// DefaultConfig returns a 24 hour token lifetime. The secret has no default.
func DefaultConfig() Config {
	return Config{TokenTTL: 24 * time.Hour}
}
