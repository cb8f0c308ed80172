package notifier

import (
	"context"

	"github.com/rentflow/backend/internal/application/notification"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger    *zap.Logger
	formatter *Formatter
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(l *zap.Logger, formatter *Formatter) *LogNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	if formatter == nil {
		formatter = NewFormatter("en")
	}
	return &LogNotifier{logger: l.Named("notifier"), formatter: formatter}
}

// Notify logs n. It never fails.
func (n *LogNotifier) Notify(ctx context.Context, msg notification.Notification) error {
	logger.WithLogger(ctx, n.logger).Info(n.formatter.Subject(msg),
		zap.String("event_type", msg.EventType),
		zap.String("obligation_id", msg.ObligationID.String()),
		zap.String("contract_id", msg.ContractID.String()),
		zap.String("status", msg.Status),
		zap.String("amount", msg.Total().String()),
		zap.String("currency", msg.Currency))
	return nil
}
