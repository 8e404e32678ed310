package trade

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
)

// DefaultPaymentTermsDays is used when an invoice has no explicit due date
const DefaultPaymentTermsDays = 30

// Clock returns the current time; tests replace it
type Clock func() time.Time

func toDomainFilter(f ListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.CustomerID != nil {
		filter.Filters["customer_id"] = *f.CustomerID
	}
	return filter
}

// orderLockKeys locks the order document and every balance its stocked
// lines reserve or consume
func orderLockKeys(o *trade.SalesOrder) []string {
	keys := []string{txn.DocumentKey(trade.AggregateTypeSalesOrder, o.ID)}
	for _, item := range o.Items {
		if item.IsStocked() {
			keys = append(keys, txn.StockKey(*item.ItemID, o.LocationID))
		}
	}
	return keys
}

func loadOrder(ctx context.Context, uow *txn.UnitOfWork, id uuid.UUID) (*trade.SalesOrder, error) {
	var order *trade.SalesOrder
	err := uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		order, err = repos.SalesOrders().FindByID(ctx, id)
		return err
	})
	return order, err
}
