package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ScopeFull     = "full"
	ScopeManagers = "managers"
	ScopeGameplay = "gameplay"

	adminAudience = "raspay-admin"
)

var ErrRevokedToken = errors.New("token revoked")

// Credential is a verified admin capability. Static credentials come from the
// configured allow-list and carry no expiry or ID.
type Credential struct {
	Subject   string
	Scopes    []string
	ID        string
	ExpiresAt time.Time
	Static    bool
}

func (c Credential) HasScope(scope string) bool {
	for _, granted := range c.Scopes {
		if granted == ScopeFull || granted == scope {
			return true
		}
	}
	return scope == ""
}

type AdminClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

type RevocationStore interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AdminAuthenticator struct {
	secret      string
	static      map[string][]string
	revocations RevocationStore
}

func NewAdminAuthenticator(secret string, static map[string][]string, revocations RevocationStore) *AdminAuthenticator {
	copied := make(map[string][]string, len(static))
	for token, scopes := range static {
		copied[token] = append([]string(nil), scopes...)
	}
	return &AdminAuthenticator{secret: secret, static: copied, revocations: revocations}
}

func (a *AdminAuthenticator) Issue(subject string, scopes []string, ttl time.Duration) (string, Credential, error) {
	now := time.Now()
	credential := Credential{
		Subject:   subject,
		Scopes:    append([]string(nil), scopes...),
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(ttl).Truncate(time.Second),
	}
	claims := AdminClaims{
		Scopes: credential.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        credential.ID,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{adminAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(credential.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.secret))
	if err != nil {
		return "", Credential{}, err
	}
	return token, credential, nil
}

func (a *AdminAuthenticator) Verify(ctx context.Context, token string) (Credential, error) {
	if token == "" {
		return Credential{}, ErrInvalidToken
	}
	for candidate, scopes := range a.static {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			return Credential{Subject: "static", Scopes: scopes, Static: true}, nil
		}
	}
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, keyFunc(a.secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(adminAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return Credential{}, ErrInvalidToken
	}
	if a.revocations != nil {
		revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Credential{}, err
		}
		if revoked {
			return Credential{}, ErrRevokedToken
		}
	}
	return Credential{
		Subject:   claims.Subject,
		Scopes:    claims.Scopes,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
