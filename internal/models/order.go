package models

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pendiente"
)

// SyncState is the persisted order-sync state machine. Syncing survives a
// process restart, so a crash mid-sync stays visible and retryable.
type SyncState string

const (
	SyncStateNotSynced SyncState = "not_synced"
	SyncStateSyncing   SyncState = "syncing"
	SyncStateSynced    SyncState = "synced"
)

const (
	PaymentMethodWebpay   = "webpay"
	PaymentMethodTransfer = "transferencia"
)

// CheckoutForm is the shipping/payment form as submitted; the order keeps a
// snapshot of it verbatim.
type CheckoutForm struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	Region            string `json:"region,omitempty"`
	Commune           string `json:"commune,omitempty"`
	PaymentMethod     string `json:"payment_method"`
	DeliveryDate      string `json:"delivery_date"`
	CardNumber        string `json:"card_number,omitempty"`
	TransferReference string `json:"transfer_reference,omitempty"`
}

// Order is immutable once committed, except for the sync fields which advance
// exactly once to synced.
type Order struct {
	ID           int64          `json:"id"`
	Scope        string         `json:"scope"`
	BackendID    int64          `json:"backend_id,omitempty"`
	IssueDate    string         `json:"issue_date"`
	IssueTime    string         `json:"issue_time"`
	DeliveryDate string         `json:"delivery_date"`
	Customer     CheckoutForm   `json:"customer"`
	Items        []CartLineItem `json:"items"`
	Subtotal     int64          `json:"subtotal"`
	Discount     int64          `json:"discount"`
	Total        int64          `json:"total"`
	Status       OrderStatus    `json:"status"`
	SyncState    SyncState      `json:"sync_state"`
	SyncStarted  time.Time      `json:"sync_started,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (o *Order) Synced() bool {
	return o.SyncState == SyncStateSynced
}

type TrackOrderRequest struct {
	OrderID int64  `json:"order_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}
