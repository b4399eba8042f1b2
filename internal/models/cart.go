package models

// CartLineItem snapshots the product at add time. ID identifies the line, not
// the product: the same product can appear twice with different messages.
type CartLineItem struct {
	ID          string `json:"id"`
	ProductCode string `json:"product_code"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Message     string `json:"message,omitempty"`
}

type Cart struct {
	Scope string         `json:"scope"`
	Items []CartLineItem `json:"items"`
}

// CartSummary carries the derived figures, recomputed on every read.
type CartSummary struct {
	TotalItems    int   `json:"total_items"`
	Subtotal      int64 `json:"subtotal"`
	Discount      int64 `json:"discount"`
	Total         int64 `json:"total"`
	AgeDiscount   bool  `json:"age_discount"`
	PromoDiscount bool  `json:"promo_discount"`
}

type CartView struct {
	Items   []CartLineItem `json:"items"`
	Summary CartSummary    `json:"summary"`
}

type AddItemRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1,max=20"`
	Message     string `json:"message,omitempty" validate:"omitempty,max=50"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type UpdateMessageRequest struct {
	Message string `json:"message" validate:"max=50"`
}
