// Package token issues and verifies the signed service tokens that gate
// access to registry operations. Internal components (scraper workers, admin
// tooling, CLI) authenticate with short-lived HMAC-signed tokens instead of
// shared long-lived credentials. Verification is stateless: signature plus
// expiry, no revocation list.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Permission strings checked by the service layer. The token service itself
// is mechanism, not policy: it reports what a token carries and leaves the
// authorization decision to the caller.
const (
	PermissionRead  = "registry:read"
	PermissionWrite = "registry:write"
	PermissionAdmin = "registry:admin"
)

// Claims is the verified claims bundle of a service token.
type Claims struct {
	Subject     string
	Role        string
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// HasPermission reports whether the claims carry the given permission.
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// AuthErrorKind classifies a token verification failure.
type AuthErrorKind string

const (
	// AuthErrorExpired means the token's expiry has passed
	AuthErrorExpired AuthErrorKind = "expired"

	// AuthErrorInvalidSignature means the signature check failed
	AuthErrorInvalidSignature AuthErrorKind = "invalid_signature"

	// AuthErrorMalformed means the token or its claims could not be parsed
	AuthErrorMalformed AuthErrorKind = "malformed"
)

// AuthError is a fatal verification failure for the calling request. It is
// never retried automatically.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// serviceClaims is the wire shape of the JWT payload.
type serviceClaims struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Service signs and verifies service tokens with a shared secret configured
// at process start. The key material is an opaque dependency; rotation and
// storage are someone else's problem.
type Service struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewService creates a token service. The secret must not be empty; a
// missing signing key is a configuration failure and aborts startup.
func NewService(secret []byte, defaultTTL time.Duration) (*Service, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token signing secret cannot be empty")
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}

	return &Service{
		secret:     secret,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a token for the subject with the given role and permission
// set. A non-positive ttl falls back to the service default. Restricted to
// trusted bootstrap callers; never exposed publicly.
func (s *Service) Issue(subject, role string, permissions []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject cannot be empty")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now().UTC()
	claims := serviceClaims{
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token string and returns its
// claims. Failures are classified: Expired when the expiry has passed
// (regardless of signature validity elsewhere in the claims),
// InvalidSignature when the signature check fails, Malformed for anything
// that cannot be parsed.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	var claims serviceClaims

	parsed, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classifyError(err)
	}

	if !parsed.Valid {
		return nil, &AuthError{Kind: AuthErrorMalformed, Err: fmt.Errorf("token is not valid")}
	}

	result := &Claims{
		Subject:     claims.Subject,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// classifyError maps jwt parse errors onto the AuthError taxonomy.
func classifyError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &AuthError{Kind: AuthErrorExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return &AuthError{Kind: AuthErrorInvalidSignature, Err: err}
	default:
		return &AuthError{Kind: AuthErrorMalformed, Err: err}
	}
}
