package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/notify"
)

const defaultNotifyTimeout = 10 * time.Second

// sendNotification never reports failure to the caller; it logs and counts it.
func sendNotification(ctx context.Context, sender notify.Sender, m *metrics.Metrics, timeout time.Duration, kind string, msg notify.Message) {
	l := logging.FromContext(ctx).With("notification", kind)
	if sender == nil {
		l.Info("notification_skipped", "reason", "no sender configured")
		return
	}
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := sender.Send(sendCtx, msg); err != nil {
		l.Error("notification_failed", "to", msg.To, "error", err)
		m.NotificationFailed(kind)
		return
	}
	l.Info("notification_sent", "to", msg.To)
}
