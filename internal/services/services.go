package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/events"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/store"
	"github.com/raspadomilhao/raspay-sub003/internal/websocket"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actor, action, entityType, entityID, data string) error
}

type FeedBroadcaster interface {
	BroadcastWin(event websocket.WinEvent)
	BroadcastVault(update websocket.VaultUpdate)
}

type FeedInvalidator interface {
	Invalidate(ctx context.Context) error
}

type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func invalidInput(err error) error {
	return apperr.Wrap(apperr.InvalidInput, err.Error(), err)
}

func auditData(value any) string {
	payload, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(payload)
}

// publish runs after commit; a broker outage must not undo a committed write.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("type", event.Type).Warn("publish event failed")
	}
}

func invalidateFeed(ctx context.Context, feed FeedInvalidator) {
	if feed == nil {
		return
	}
	if err := feed.Invalidate(ctx); err != nil {
		log.WithError(err).Warn("invalidate winner feed failed")
	}
}

// displayName keeps only the first name for the public feed.
func displayName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Jogador"
	}
	return fields[0]
}

func lookupDisplayName(ctx context.Context, users UserDirectory, userID string) string {
	if users == nil || userID == "" {
		return displayName("")
	}
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("winner name lookup failed")
		return displayName("")
	}
	return displayName(user.Name)
}
