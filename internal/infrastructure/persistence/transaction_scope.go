package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/audit"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
	return translateError(err, "commit transaction")
}

// Repositories provides access to all repositories bound to one *gorm.DB,
// usually a transaction.
type Repositories struct {
	tx *gorm.DB
}

// NewRepositories binds every repository to db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{tx: db}
}

// Quotations returns the quotation repository
func (r *Repositories) Quotations() trade.QuotationRepository {
	return NewGormQuotationRepository(r.tx)
}

// SalesOrders returns the sales order repository
func (r *Repositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

// Invoices returns the invoice repository
func (r *Repositories) Invoices() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Shipments returns the shipment repository
func (r *Repositories) Shipments() trade.ShipmentRepository {
	return NewGormShipmentRepository(r.tx)
}

// Payments returns the payment repository
func (r *Repositories) Payments() trade.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Conversions returns the conversion record repository
func (r *Repositories) Conversions() trade.ConversionRecordRepository {
	return NewGormConversionRecordRepository(r.tx)
}

// Locations returns the location repository
func (r *Repositories) Locations() inventory.LocationRepository {
	return NewGormLocationRepository(r.tx)
}

// Balances returns the inventory balance repository
func (r *Repositories) Balances() inventory.BalanceRepository {
	return NewGormBalanceRepository(r.tx)
}

// Movements returns the stock movement repository
func (r *Repositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// Journal returns the journal entry repository
func (r *Repositories) Journal() finance.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

// Sequences returns the document number sequence repository
func (r *Repositories) Sequences() shared.SequenceRepository {
	return NewGormSequenceRepository(r.tx)
}

// AuditLog returns the audit log repository
func (r *Repositories) AuditLog() audit.Repository {
	return NewGormAuditLogRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ txn.TransactionScope = (*GormTransactionScope)(nil)

// Ensure Repositories implements txn.Repositories
var _ txn.Repositories = (*Repositories)(nil)
