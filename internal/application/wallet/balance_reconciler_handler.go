package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"go.uber.org/zap"
)

// ConsumerGroupReconciler is the consumer group name of the balance
// reconciler. Dedup keys and dead letters carry it, so the budget engine
// processes the same stream independently.
const ConsumerGroupReconciler = "wallet-reconciler"

// BalanceReconcilerHandler keeps wallet balances in line with the
// transaction event stream. Every transaction.* event carries a signed
// balance delta; the handler applies it through the repository, which
// records the event ID durably so replays are no-ops.
type BalanceReconcilerHandler struct {
	wallets wallet.WalletRepository
	logger  *zap.Logger
}

// NewBalanceReconcilerHandler creates a new BalanceReconcilerHandler
func NewBalanceReconcilerHandler(wallets wallet.WalletRepository, logger *zap.Logger) *BalanceReconcilerHandler {
	return &BalanceReconcilerHandler{
		wallets: wallets,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *BalanceReconcilerHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeTransactionCreated,
		ledger.EventTypeTransactionUpdated,
		ledger.EventTypeTransactionDeleted,
	}
}

// Handle applies the event's balance delta to its wallet
func (h *BalanceReconcilerHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	txEvent, ok := event.(ledger.TransactionEvent)
	if !ok {
		h.logger.Error("unexpected event type for balance reconciliation",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	delta := txEvent.BalanceDelta()
	if delta.IsZero() {
		// An update that changed only category or description nets to zero
		h.logger.Debug("skipping zero balance delta",
			zap.String("event_id", event.EventID().String()),
		)
		return nil
	}

	walletID := txEvent.TransactionWalletID()
	err := h.wallets.ApplyBalanceDelta(ctx, walletID, event.EventID(), delta)
	if errors.Is(err, shared.ErrAlreadyExists) {
		h.logger.Info("balance delta already applied, skipping",
			zap.String("event_id", event.EventID().String()),
			zap.String("wallet_id", walletID.String()),
		)
		return nil
	}
	if err != nil {
		h.logger.Error("failed to apply balance delta",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.String("wallet_id", walletID.String()),
			zap.String("delta", delta.String()),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("applied balance delta",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("wallet_id", walletID.String()),
		zap.String("delta", delta.String()),
	)
	return nil
}
