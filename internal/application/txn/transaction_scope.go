// Package txn runs application operations as a single unit of work:
// keyed locks, one database transaction, and event publication after commit.
package txn

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/audit"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
)

// TransactionScope provides transactional access to repositories.
// If fn returns an error the transaction is rolled back, otherwise committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides every repository bound to the same transaction
type Repositories interface {
	Quotations() trade.QuotationRepository
	SalesOrders() trade.SalesOrderRepository
	Invoices() trade.InvoiceRepository
	Shipments() trade.ShipmentRepository
	Payments() trade.PaymentRepository
	Conversions() trade.ConversionRecordRepository
	Locations() inventory.LocationRepository
	Balances() inventory.BalanceRepository
	Movements() inventory.MovementRepository
	Journal() finance.JournalEntryRepository
	Sequences() shared.SequenceRepository
	AuditLog() audit.Repository
}
