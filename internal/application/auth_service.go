package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// Authenticator checks HTTP Basic credentials against one configured user.
// A zero-value configuration disables authentication.
type Authenticator struct {
	username       string
	passwordHash   string
	verifyPassword PasswordVerifier
	logger         *slog.Logger
}

// NewAuthenticator constructs an authenticator for username and its argon2id hash.
func NewAuthenticator(username, passwordHash string) *Authenticator {
	return NewAuthenticatorWithLogger(username, passwordHash, nil, nil)
}

// NewAuthenticatorWithLogger constructs an authenticator with a specified
// verifier and logger.
func NewAuthenticatorWithLogger(username, passwordHash string, verify PasswordVerifier, logger *slog.Logger) *Authenticator {
	if verify == nil {
		verify = VerifyPassword
	}
	return &Authenticator{
		username:       strings.TrimSpace(username),
		passwordHash:   strings.TrimSpace(passwordHash),
		verifyPassword: verify,
		logger:         defaultLogger(logger),
	}
}

// Enabled reports whether credentials are required.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.username != "" && a.passwordHash != ""
}

// Authenticate returns ErrInvalidCredentials unless username and password
// match the configured user.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (err error) {
	if a == nil {
		return fmt.Errorf("Authenticator is nil")
	}
	if !a.Enabled() {
		return nil
	}

	logger := serviceLogger(ctx, a.logger, "Authenticator", "Authenticate")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	userMatches := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	verifyErr := a.verifyPassword(a.passwordHash, password)
	if !userMatches {
		err = ErrInvalidCredentials
		return
	}
	if verifyErr != nil {
		err = ErrInvalidCredentials
		if verifyErr != ErrInvalidCredentials {
			err = fmt.Errorf("%w: %v", ErrInvalidCredentials, verifyErr)
		}
	}
	return
}
