package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
)

const (
	MaxQuantity      = 20
	MaxMessageLength = 50

	// FELICES50 grants the lifetime 10% discount; customers aged 50 or more
	// get 50%. Both entitlements stack additively.
	AgeDiscountPercent   = 50
	PromoDiscountPercent = 10
)

// CartService owns line-item accumulation and the pricing engine. Carts are
// partitioned by scope (guest vs authenticated identity); logging in or out
// swaps partitions, it never merges them.
type CartService struct {
	store     store.Store
	sanitizer *bluemonday.Policy
}

func NewCartService(st store.Store) *CartService {
	return &CartService{
		store:     st,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// getCart degrades read failures to an empty cart: a broken state store must
// not take the storefront down.
func (s *CartService) getCart(ctx context.Context, scope string) *models.Cart {
	cart := &models.Cart{Scope: scope}

	if _, err := s.store.Get(ctx, store.CartKey(scope), cart); err != nil {
		slog.Warn("Failed to read cart, treating as empty", slog.String("scope", scope), slog.String("error", err.Error()))

		return &models.Cart{Scope: scope}
	}

	cart.Scope = scope

	return cart
}

func (s *CartService) saveCart(ctx context.Context, cart *models.Cart) {
	if err := s.store.Set(ctx, store.CartKey(cart.Scope), cart); err != nil {
		slog.Error("Failed to persist cart", slog.String("scope", cart.Scope), slog.String("error", err.Error()))
	}
}

// normalizeMessage trims and strips markup from the custom cake message. The
// trimmed form is also the merge key, so "  feliz " and "feliz" are the same
// dedication.
func (s *CartService) normalizeMessage(message string) string {
	normalized := strings.TrimSpace(s.sanitizer.Sanitize(message))

	// The limit counts characters, not bytes; slicing bytes could tear a
	// multi-byte rune and break the merge key for accented messages.
	if runes := []rune(normalized); len(runes) > MaxMessageLength {
		normalized = string(runes[:MaxMessageLength])
	}

	return normalized
}

func clampQuantity(quantity int) int {
	if quantity > MaxQuantity {
		return MaxQuantity
	}

	return quantity
}

// AddItem merges into an existing line when product code and normalized
// message both match, summing quantities (clamped to the cap); otherwise it
// appends a fresh line with its own identity.
func (s *CartService) AddItem(ctx context.Context, scope string, product *models.Product, quantity int, message string) (*models.Cart, error) {
	if product == nil {
		return nil, errors.BadRequestError("Product is required")
	}

	if !product.Active {
		return nil, errors.BadRequestError("Product " + product.Name + " is not available")
	}

	if quantity < 1 {
		return nil, errors.ValidationError("Quantity must be at least 1")
	}

	quantity = clampQuantity(quantity)
	normalized := s.normalizeMessage(message)

	cart := s.getCart(ctx, scope)

	for i := range cart.Items {
		if cart.Items[i].ProductCode == product.Code && cart.Items[i].Message == normalized {
			cart.Items[i].Quantity = clampQuantity(cart.Items[i].Quantity + quantity)
			s.saveCart(ctx, cart)

			return cart, nil
		}
	}

	cart.Items = append(cart.Items, models.CartLineItem{
		ID:          uuid.NewString(),
		ProductCode: product.Code,
		Name:        product.Name,
		Category:    product.Category,
		UnitPrice:   product.UnitPrice,
		Quantity:    quantity,
		Message:     normalized,
	})

	s.saveCart(ctx, cart)

	return cart, nil
}

// RemoveItem is idempotent: removing an unknown line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, scope, lineID string) *models.Cart {
	cart := s.getCart(ctx, scope)

	kept := cart.Items[:0]

	for _, item := range cart.Items {
		if item.ID != lineID {
			kept = append(kept, item)
		}
	}

	cart.Items = kept
	s.saveCart(ctx, cart)

	return cart
}

// UpdateQuantity removes the line when the new quantity drops below 1 and
// clamps it to the cap otherwise.
func (s *CartService) UpdateQuantity(ctx context.Context, scope, lineID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, scope, lineID), nil
	}

	cart := s.getCart(ctx, scope)

	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			cart.Items[i].Quantity = clampQuantity(quantity)
			s.saveCart(ctx, cart)

			return cart, nil
		}
	}

	return nil, errors.BadRequestError("Item not found in the cart")
}

func (s *CartService) UpdateMessage(ctx context.Context, scope, lineID, message string) (*models.Cart, error) {
	cart := s.getCart(ctx, scope)

	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			cart.Items[i].Message = s.normalizeMessage(message)
			s.saveCart(ctx, cart)

			return cart, nil
		}
	}

	return nil, errors.BadRequestError("Item not found in the cart")
}

func (s *CartService) Clear(ctx context.Context, scope string) {
	if err := s.store.Delete(ctx, store.CartKey(scope)); err != nil {
		slog.Error("Failed to clear cart", slog.String("scope", scope), slog.String("error", err.Error()))
	}
}

func (s *CartService) Get(ctx context.Context, scope string) *models.Cart {
	return s.getCart(ctx, scope)
}

func (s *CartService) View(ctx context.Context, scope string, eligibility models.DiscountEligibility) *models.CartView {
	cart := s.getCart(ctx, scope)

	return &models.CartView{
		Items:   cart.Items,
		Summary: Summarize(cart, eligibility),
	}
}

// Summarize derives the totals on every read. The discount is a pure function
// of the subtotal and the cached eligibility flags: age 50%, promo 10%,
// stacked additively, with the total floored at zero.
func Summarize(cart *models.Cart, eligibility models.DiscountEligibility) models.CartSummary {
	summary := models.CartSummary{
		AgeDiscount:   eligibility.AgeDiscount,
		PromoDiscount: eligibility.PromoDiscount,
	}

	for _, item := range cart.Items {
		summary.TotalItems += item.Quantity
		summary.Subtotal += item.UnitPrice * int64(item.Quantity)
	}

	percent := int64(0)

	if eligibility.AgeDiscount {
		percent += AgeDiscountPercent
	}

	if eligibility.PromoDiscount {
		percent += PromoDiscountPercent
	}

	if percent > 100 {
		percent = 100
	}

	summary.Discount = summary.Subtotal * percent / 100
	summary.Total = summary.Subtotal - summary.Discount

	if summary.Total < 0 {
		summary.Total = 0
	}

	return summary
}
