package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
)

func TestAdminStoreIsRevoked(t *testing.T) {
	store := NewAdminStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM revoked_admin_tokens") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] == "jti-1" {
				*dest.(*int) = 1
			}
			return nil
		},
	})
	revoked, err := store.IsRevoked(context.Background(), "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}
	revoked, err = store.IsRevoked(context.Background(), "jti-2")
	if err != nil || revoked {
		t.Fatalf("expected not revoked, got %v %v", revoked, err)
	}
}

func TestAdminStoreRevoke(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO revoked_admin_tokens") || !strings.Contains(query, "ON CONFLICT DO NOTHING") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "jti-1" || args[1] != expires {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAdminStore(stubDB{})
	if err := store.Revoke(context.Background(), execer, "jti-1", expires); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdminStorePurgeExpired(t *testing.T) {
	store := NewAdminStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "DELETE FROM revoked_admin_tokens") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 3}, nil
		},
	})
	purged, err := store.PurgeExpired(context.Background(), time.Now())
	if err != nil || purged != 3 {
		t.Fatalf("unexpected result: %d %v", purged, err)
	}
}
