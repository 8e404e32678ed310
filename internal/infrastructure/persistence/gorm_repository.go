package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versionedModel is a persistence model carrying an optimistic-lock version
type versionedModel interface {
	SetVersion(v int)
}

// saveAggregate inserts a new aggregate at version 1 or updates an existing
// one guarded by its current version. On success the in-memory version is
// advanced so the same aggregate can be saved again in the same transaction.
// Associations are never written here; callers persist children themselves.
func saveAggregate(tx *gorm.DB, entity string, root *shared.BaseAggregateRoot, m versionedModel) error {
	if root.IsNew() {
		m.SetVersion(1)
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return translateError(err, "create "+entity)
		}
		root.Version = 1
		return nil
	}

	current := root.Version
	m.SetVersion(current + 1)
	result := tx.Model(m).
		Omit(clause.Associations).
		Where("version = ?", current).
		Select("*").
		Updates(m)
	if result.Error != nil {
		return translateError(result.Error, "update "+entity)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError(entity, root.ID)
	}
	root.Version = current + 1
	return nil
}

// replaceChildren deletes the child rows of parentID whose id is not in keep
func replaceChildren(tx *gorm.DB, child any, fkColumn string, parentID uuid.UUID, keep []uuid.UUID) error {
	query := tx.Where(fkColumn+" = ?", parentID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	if err := query.Delete(child).Error; err != nil {
		return translateError(err, "delete stale lines")
	}
	return nil
}

// saveChildren writes the child rows: a batch insert for a new parent,
// one upsert per row otherwise
func saveChildren[T any](tx *gorm.DB, rows []T, parentIsNew bool) error {
	if len(rows) == 0 {
		return nil
	}
	if parentIsNew {
		if err := tx.Create(&rows).Error; err != nil {
			return translateError(err, "create lines")
		}
		return nil
	}
	for i := range rows {
		if err := tx.Save(&rows[i]).Error; err != nil {
			return translateError(err, "save lines")
		}
	}
	return nil
}

// forUpdate adds a row lock on dialects that support it. SQLite serializes
// writers at the database level so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector != nil && tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// findOne loads a single row into dest, mapping a missing row to NOT_FOUND
func findOne(query *gorm.DB, dest any, entity string, id any) error {
	if err := query.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.NewNotFoundError(entity, id)
		}
		return translateError(err, "load "+entity)
	}
	return nil
}

// TranslateError maps driver errors onto the domain error taxonomy
func TranslateError(err error, op string) error {
	return translateError(err, op)
}

func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("%s: record not found", op))
	}
	if isDuplicateKey(err) {
		return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("%s: record already exists", op))
	}
	return shared.NewPersistenceError(op, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

// applyDocumentFilter applies the status/customer filters, sort and paging
// shared by the trade document lists
func applyDocumentFilter(query *gorm.DB, filter shared.Filter, sortFields map[string]bool) *gorm.DB {
	query = applyConditions(query, filter)
	orderBy := ValidateSortField(filter.OrderBy, sortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["customer_id"]; ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			query = query.Where("customer_id = ?", id)
		}
	}
	return query
}
