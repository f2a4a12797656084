package services

import (
	"context"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/auth"
	"github.com/raspadomilhao/raspay-sub003/internal/db"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/store"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

var (
	ErrAdminLoginDisabled = apperr.New(apperr.Unauthorized, "admin login is not configured")
	ErrBadAdminPassword   = apperr.New(apperr.Unauthorized, "invalid admin password")
	ErrStaticNotRevocable = apperr.New(apperr.InvalidInput, "static admin tokens cannot be revoked")
)

type AdminIssuer interface {
	Issue(subject string, scopes []string, ttl time.Duration) (string, auth.Credential, error)
}

type RevocationWriter interface {
	Revoke(ctx context.Context, tx store.Execer, tokenID string, expiresAt time.Time) error
}

type AuditReader interface {
	List(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

type AdminConfig struct {
	PasswordHash string
	TokenTTL     time.Duration
}

type AdminService struct {
	txRunner    db.TxRunner
	issuer      AdminIssuer
	revocations RevocationWriter
	auditStore  AuditStore
	auditReader AuditReader
	cfg         AdminConfig
}

func NewAdminService(txRunner db.TxRunner, issuer AdminIssuer, revocations RevocationWriter, auditStore AuditStore, auditReader AuditReader, cfg AdminConfig) *AdminService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &AdminService{
		txRunner:    txRunner,
		issuer:      issuer,
		revocations: revocations,
		auditStore:  auditStore,
		auditReader: auditReader,
		cfg:         cfg,
	}
}

type AdminSession struct {
	Token      string
	Credential auth.Credential
}

// Login trades the configured admin password for a full-scope signed token.
func (s *AdminService) Login(ctx context.Context, password string) (AdminSession, error) {
	if s.cfg.PasswordHash == "" {
		return AdminSession{}, ErrAdminLoginDisabled
	}
	if !auth.CheckPassword(s.cfg.PasswordHash, password) {
		log.Warn("admin login rejected")
		return AdminSession{}, ErrBadAdminPassword
	}
	token, credential, err := s.issuer.Issue("admin", []string{auth.ScopeFull}, s.cfg.TokenTTL)
	if err != nil {
		return AdminSession{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.auditStore.Log(ctx, tx, credential.Subject, "admin_login", "admin_token", credential.ID, auditData(map[string]string{
			"expires_at": credential.ExpiresAt.UTC().Format(time.RFC3339),
		}))
	})
	if err != nil {
		return AdminSession{}, err
	}
	return AdminSession{Token: token, Credential: credential}, nil
}

// Revoke invalidates a signed admin token until its natural expiry.
func (s *AdminService) Revoke(ctx context.Context, credential auth.Credential) error {
	if credential.Static || credential.ID == "" {
		return ErrStaticNotRevocable
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.revocations.Revoke(ctx, tx, credential.ID, credential.ExpiresAt); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, credential.Subject, "admin_revoke", "admin_token", credential.ID, "{}")
	})
}

func (s *AdminService) ListAudit(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	return s.auditReader.List(ctx, limit, offset)
}
