package finance

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/google/uuid"
)

// JournalService answers read-only ledger queries
type JournalService struct {
	uow *txn.UnitOfWork
}

// NewJournalService creates a new JournalService
func NewJournalService(uow *txn.UnitOfWork) *JournalService {
	return &JournalService{uow: uow}
}

// GetEntry returns one journal entry
func (s *JournalService) GetEntry(ctx context.Context, id uuid.UUID) (*JournalEntryResponse, error) {
	var resp JournalEntryResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		entry, err := repos.Journal().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToJournalEntryResponse(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListEntries returns the entries for a business reference, or for a source
// document when sourceID is set
func (s *JournalService) ListEntries(ctx context.Context, filter JournalFilter) ([]JournalEntryResponse, error) {
	var entries []finance.JournalEntry
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		if filter.SourceID != nil {
			entries, err = repos.Journal().FindBySource(ctx, filter.SourceType, *filter.SourceID)
		} else {
			entries, err = repos.Journal().FindByReference(ctx, filter.Reference)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return out, nil
}

// AccountBalance returns the net position of one account
func (s *JournalService) AccountBalance(ctx context.Context, accountCode string) (*finance.AccountBalance, error) {
	var balance *finance.AccountBalance
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		balance, err = repos.Journal().AccountBalance(ctx, accountCode)
		return err
	})
	return balance, err
}

// TrialBalance totals every account in the ledger
func (s *JournalService) TrialBalance(ctx context.Context) (*finance.TrialBalance, error) {
	var accounts []finance.AccountBalance
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		accounts, err = repos.Journal().AccountBalances(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return finance.NewTrialBalance(accounts, time.Now()), nil
}
