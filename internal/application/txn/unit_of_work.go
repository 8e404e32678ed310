package txn

import (
	"context"
	"fmt"

	"github.com/erp/ordertocash/internal/domain/shared"
	"go.uber.org/zap"
)

// Tx is the view of a running unit of work handed to operations
type Tx struct {
	Repositories
	events []shared.DomainEvent
}

// Track collects the pending events of aggregates saved in this transaction.
// Events are published only after commit.
func (t *Tx) Track(aggs ...shared.AggregateRoot) {
	for _, a := range aggs {
		t.events = append(t.events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
}

// Emit queues standalone events for publication after commit
func (t *Tx) Emit(events ...shared.DomainEvent) {
	t.events = append(t.events, events...)
}

// UnitOfWork acquires locks, runs a transaction and publishes events
type UnitOfWork struct {
	scope     TransactionScope
	locker    Locker
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewUnitOfWork creates a UnitOfWork. publisher may be nil.
func NewUnitOfWork(scope TransactionScope, locker Locker, publisher shared.EventPublisher, logger *zap.Logger) *UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitOfWork{
		scope:     scope,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// Run holds the given lock keys for the whole transaction. On commit the
// collected events are published; publication failures are logged only,
// because the business change is already durable.
func (u *UnitOfWork) Run(ctx context.Context, lockKeys []string, fn func(tx *Tx) error) error {
	if len(lockKeys) > 0 && u.locker != nil {
		release, err := u.locker.Acquire(ctx, SortedKeys(lockKeys)...)
		if err != nil {
			return fmt.Errorf("failed to acquire locks: %w", err)
		}
		defer release()
	}

	var events []shared.DomainEvent
	err := u.scope.Execute(ctx, func(repos Repositories) error {
		tx := &Tx{Repositories: repos}
		if err := fn(tx); err != nil {
			return err
		}
		events = tx.events
		return nil
	})
	if err != nil {
		return err
	}

	if u.publisher != nil && len(events) > 0 {
		if perr := u.publisher.Publish(ctx, events...); perr != nil {
			u.logger.Warn("Failed to publish events after commit",
				zap.Int("event_count", len(events)),
				zap.Error(perr),
			)
		}
	}
	return nil
}

// Read runs fn in a transaction without locks or events
func (u *UnitOfWork) Read(ctx context.Context, fn func(repos Repositories) error) error {
	return u.scope.Execute(ctx, fn)
}
