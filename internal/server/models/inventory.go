package models

import "time"

// Inventory change kinds.
const (
	ChangeSale     = "sale"
	ChangeIncrease = "increase"
	ChangeReturn   = "return"
	ChangeDecrease = "decrease"
	ChangeSet      = "set"
)

// InventoryLog records one stock movement.
type InventoryLog struct {
	ID               int64
	ProductID        int64
	ChangeType       string
	QuantityChange   int
	PreviousQuantity int
	NewQuantity      int
	Reason           string
	Reference        string
	UserID           *int64
	CreatedAt        time.Time
}

// Adjustment is a manual stock correction request.
type Adjustment struct {
	ProductID int64
	Kind      string
	Quantity  int
	Reason    string
	UserID    int64
}

// AdjustmentResult reports the stock before and after an adjustment.
type AdjustmentResult struct {
	Product          *Product
	PreviousQuantity int
	NewQuantity      int
	Log              *InventoryLog
}
