package services

import (
	"context"
	"testing"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/auth"
	"github.com/raspadomilhao/raspay-sub003/internal/store"
)

type stubRevocations struct {
	revoked map[string]time.Time
}

func (s *stubRevocations) Revoke(_ context.Context, _ store.Execer, tokenID string, expiresAt time.Time) error {
	s.revoked[tokenID] = expiresAt
	return nil
}

func TestAdminLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	issuer := auth.NewAdminAuthenticator("secret", nil, nil)
	var audited string
	audit := stubAuditStore{logFn: func(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
		audited = action
		return nil
	}}
	service := NewAdminService(fakeTxRunner{}, issuer, &stubRevocations{}, audit, nil, AdminConfig{PasswordHash: hash, TokenTTL: time.Hour})

	if _, err := service.Login(context.Background(), "wrong"); err != ErrBadAdminPassword {
		t.Fatalf("expected ErrBadAdminPassword, got %v", err)
	}
	session, err := service.Login(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" || !session.Credential.HasScope(auth.ScopeManagers) {
		t.Fatalf("unexpected session: %+v", session)
	}
	credential, err := issuer.Verify(context.Background(), session.Token)
	if err != nil || credential.ID != session.Credential.ID {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if audited != "admin_login" {
		t.Fatalf("expected admin_login audit, got %q", audited)
	}
}

func TestAdminLoginDisabled(t *testing.T) {
	service := NewAdminService(fakeTxRunner{}, auth.NewAdminAuthenticator("secret", nil, nil), &stubRevocations{}, stubAuditStore{}, nil, AdminConfig{})
	if _, err := service.Login(context.Background(), "anything"); err != ErrAdminLoginDisabled {
		t.Fatalf("expected ErrAdminLoginDisabled, got %v", err)
	}
}

func TestAdminRevoke(t *testing.T) {
	revocations := &stubRevocations{revoked: map[string]time.Time{}}
	service := NewAdminService(fakeTxRunner{}, auth.NewAdminAuthenticator("secret", nil, nil), revocations, stubAuditStore{}, nil, AdminConfig{})

	if err := service.Revoke(context.Background(), auth.Credential{Static: true}); err != ErrStaticNotRevocable {
		t.Fatalf("expected ErrStaticNotRevocable, got %v", err)
	}
	expires := time.Now().Add(time.Hour)
	if err := service.Revoke(context.Background(), auth.Credential{ID: "jti-1", Subject: "admin", ExpiresAt: expires}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !revocations.revoked["jti-1"].Equal(expires) {
		t.Fatalf("expected revocation recorded, got %v", revocations.revoked)
	}
}
