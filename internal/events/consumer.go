package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/repository"
	"github.com/MagicalPanda8123/synapse-auth-service/pkg/bus"
)

// SubjectUsernameChanged is published by the user-profile service when a
// username changes; the auth service keeps a cached copy on the account row.
const SubjectUsernameChanged = "user.username.changed"

const usernameChangedDurable = "auth-username-changed"

// UsernameChangedEvent is the inbound payload on SubjectUsernameChanged
type UsernameChangedEvent struct {
	AccountID   string `json:"account_id"`
	NewUsername string `json:"new_username"`
}

// StartUsernameConsumer subscribes to username change events and updates the
// cached username. A failed update naks the message for redelivery.
func StartUsernameConsumer(ctx context.Context, b *bus.Bus, accounts repository.AccountRepository, logger *zap.Logger) (io.Closer, error) {
	handler := func(ctx context.Context, data []byte) error {
		var event UsernameChangedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// Malformed payloads are acked: redelivery cannot fix them.
			logger.Error("Dropping malformed username change event", zap.Error(err))
			return nil
		}

		if event.AccountID == "" || event.NewUsername == "" {
			logger.Error("Dropping incomplete username change event",
				zap.String("account_id", event.AccountID),
			)
			return nil
		}

		if err := accounts.UpdateUsername(ctx, event.AccountID, event.NewUsername); err != nil {
			logger.Error("Failed to update cached username",
				zap.String("account_id", event.AccountID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to update username: %w", err)
		}

		logger.Info("Updated cached username",
			zap.String("account_id", event.AccountID),
			zap.String("username", event.NewUsername),
		)
		return nil
	}

	return b.Subscribe(ctx, SubjectUsernameChanged, usernameChangedDurable, handler)
}
