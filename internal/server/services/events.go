package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
)

// Publisher receives events after the writes they describe have committed.
// Implementations must not block.
type Publisher interface {
	Publish(notify.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(notify.Event) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

var (
	ErrProductNotFound = fmt.Errorf("product %w", common.ErrorNotFound)
	ErrSaleNotFound    = fmt.Errorf("sale %w", common.ErrorNotFound)
)

// storageError keeps the taxonomy errors callers branch on and folds
// everything else into common.ErrorInternal.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return ErrProductNotFound
	case errors.Is(err, common.ErrInsufficientStock),
		errors.Is(err, common.ErrorInvalidInput),
		errors.Is(err, common.ErrorInternal):
		return err
	default:
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
}

func lowStockEvent(p string, id int64, stock int) notify.Event {
	msg := fmt.Sprintf("%s is running low: %d left", p, stock)
	if stock <= 0 {
		msg = fmt.Sprintf("%s is out of stock", p)
	}
	return notify.Event{
		Type:        notify.TypeLowStock,
		ProductID:   id,
		ProductName: p,
		Stock:       stock,
		Message:     msg,
	}
}
