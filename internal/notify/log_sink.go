package notify

import (
	"context"

	"github.com/steamwatch-project/backend/internal/logger"
)

// LogSink writes notifications to the log. Used in development and as the
// fallback when NOTIFY_WEBHOOK_URL is unset.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, n Notification) error {
	logger.Info("notify[%s] user=%d guild=%d app=%d: %s", n.Kind, n.UserID, n.GuildID, n.AppID, n.Message)
	return nil
}
