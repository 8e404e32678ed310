package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM.
// Entries are insert-only.
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// Create inserts a balanced entry with its lines
func (r *GormJournalEntryRepository) Create(ctx context.Context, e *finance.JournalEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	model := models.JournalEntryModelFromDomain(e)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveAggregate(tx, "JournalEntry", &e.BaseAggregateRoot, model); err != nil {
			return err
		}
		return saveChildren(tx, model.Lines, true)
	})
}

// FindByID finds an entry by its ID
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := findOne(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &model, "journal entry", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference returns the entries posted for a document number
func (r *GormJournalEntryRepository) FindByReference(ctx context.Context, reference string) ([]finance.JournalEntry, error) {
	var rows []models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("reference = ?", reference).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find journal entries by reference")
	}
	return entriesToDomain(rows), nil
}

// FindBySource returns the entries posted for a source document
func (r *GormJournalEntryRepository) FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]finance.JournalEntry, error) {
	var rows []models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find journal entries by source")
	}
	return entriesToDomain(rows), nil
}

type sideTotal struct {
	Side  finance.EntrySide
	Total decimal.NullDecimal
}

// AccountBalance sums the debit and credit lines of an account. Balance is
// debit minus credit.
func (r *GormJournalEntryRepository) AccountBalance(ctx context.Context, accountCode string) (*finance.AccountBalance, error) {
	var totals []sideTotal
	if err := r.db.WithContext(ctx).
		Model(&models.JournalLineModel{}).
		Select("side, SUM(amount) AS total").
		Where("account_code = ?", accountCode).
		Group("side").
		Scan(&totals).Error; err != nil {
		return nil, translateError(err, "sum account "+accountCode)
	}

	bal := &finance.AccountBalance{
		AccountCode: accountCode,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
	}
	for _, t := range totals {
		if !t.Total.Valid {
			continue
		}
		switch t.Side {
		case finance.SideDebit:
			bal.Debit = t.Total.Decimal
		case finance.SideCredit:
			bal.Credit = t.Total.Decimal
		}
	}
	bal.Balance = bal.Debit.Sub(bal.Credit)
	return bal, nil
}

type accountSideTotal struct {
	AccountCode string
	Side        finance.EntrySide
	Total       decimal.NullDecimal
}

// AccountBalances returns the balance of every account that has postings,
// ordered by account code
func (r *GormJournalEntryRepository) AccountBalances(ctx context.Context) ([]finance.AccountBalance, error) {
	var totals []accountSideTotal
	if err := r.db.WithContext(ctx).
		Model(&models.JournalLineModel{}).
		Select("account_code, side, SUM(amount) AS total").
		Group("account_code, side").
		Order("account_code ASC").
		Scan(&totals).Error; err != nil {
		return nil, translateError(err, "sum accounts")
	}

	var out []finance.AccountBalance
	for _, t := range totals {
		if len(out) == 0 || out[len(out)-1].AccountCode != t.AccountCode {
			out = append(out, finance.AccountBalance{AccountCode: t.AccountCode, Debit: decimal.Zero, Credit: decimal.Zero})
		}
		bal := &out[len(out)-1]
		if !t.Total.Valid {
			continue
		}
		switch t.Side {
		case finance.SideDebit:
			bal.Debit = t.Total.Decimal
		case finance.SideCredit:
			bal.Credit = t.Total.Decimal
		}
	}
	for i := range out {
		out[i].Balance = out[i].Debit.Sub(out[i].Credit)
	}
	return out, nil
}

func entriesToDomain(rows []models.JournalEntryModel) []finance.JournalEntry {
	out := make([]finance.JournalEntry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ finance.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
