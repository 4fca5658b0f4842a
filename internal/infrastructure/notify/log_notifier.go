// Package notify holds notifiers that do not leave the process.
package notify

import (
	"context"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/notification"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability/logctx"
)

// LogNotifier writes the confirmation to the log instead of sending it.
// It is used when no broker is configured.
type LogNotifier struct {
	log observability.Logger
}

func NewLogNotifier(log observability.Logger) *LogNotifier {
	if log == nil {
		log = observability.NopLogger()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) OrderConfirmation(ctx context.Context, c notification.Confirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := c.Order
	logctx.FromOr(ctx, n.log).Info("order_confirmation",
		observability.F("order_id", o.ID),
		observability.F("invoice", o.Invoice),
		observability.F("to", o.UserInfo.Email),
		observability.F("from", c.Merchant.FromEmail),
		observability.F("company", c.Merchant.Company),
		observability.F("total", o.Totals.Total),
		observability.F("currency", o.Currency),
	)
	return nil
}
