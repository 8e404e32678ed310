package models

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntryModel is the persistence model for a general-ledger entry.
type JournalEntryModel struct {
	AggregateModel
	EntryNumber string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	EntryDate   time.Time          `gorm:"not null;index"`
	Reference   string             `gorm:"type:varchar(100);not null;index"`
	Description string             `gorm:"type:varchar(500)"`
	SourceType  string             `gorm:"type:varchar(30);index:idx_journal_source,priority:1"`
	SourceID    uuid.UUID          `gorm:"type:uuid;index:idx_journal_source,priority:2"`
	Lines       []JournalLineModel `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalLineModel is one debit or credit line.
type JournalLineModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key"`
	EntryID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	AccountCode string            `gorm:"type:varchar(20);not null;index"`
	Side        finance.EntrySide `gorm:"type:varchar(6);not null"`
	Amount      decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Memo        string            `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// ToDomain converts the persistence model to a domain JournalEntry.
func (m *JournalEntryModel) ToDomain() *finance.JournalEntry {
	e := &finance.JournalEntry{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		EntryNumber:       m.EntryNumber,
		EntryDate:         m.EntryDate,
		Reference:         m.Reference,
		Description:       m.Description,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		Lines:             make([]finance.JournalLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		e.Lines[i] = finance.JournalLine{
			ID:          l.ID,
			AccountCode: l.AccountCode,
			Side:        l.Side,
			Amount:      l.Amount,
			Memo:        l.Memo,
		}
	}
	return e
}

// JournalEntryModelFromDomain creates a persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(e *finance.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Reference:   e.Reference,
		Description: e.Description,
		SourceType:  e.SourceType,
		SourceID:    e.SourceID,
		Lines:       make([]JournalLineModel, len(e.Lines)),
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	for i, l := range e.Lines {
		m.Lines[i] = JournalLineModel{
			ID:          l.ID,
			EntryID:     e.ID,
			AccountCode: l.AccountCode,
			Side:        l.Side,
			Amount:      l.Amount,
			Memo:        l.Memo,
		}
	}
	return m
}

// DocumentSequenceModel holds the last number issued per prefix and year.
type DocumentSequenceModel struct {
	Prefix    string `gorm:"type:varchar(10);primaryKey"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
