package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	appErrors "github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/stretchr/testify/assert"
)

// failingStore simulates a broken state backend.
type failingStore struct{}

func (f *failingStore) Get(ctx context.Context, key store.Key, dest any) (bool, error) {
	return false, errors.New("storage unavailable")
}

func (f *failingStore) Set(ctx context.Context, key store.Key, value any) error {
	return errors.New("storage unavailable")
}

func (f *failingStore) Delete(ctx context.Context, key store.Key) error {
	return errors.New("storage unavailable")
}

func (f *failingStore) Close() error { return nil }

func tortaCuadrada() *models.Product {
	return &models.Product{
		Code:      "TC001",
		Name:      "Torta Cuadrada de Chocolate",
		Category:  "Tortas Cuadradas",
		UnitPrice: 45000,
		Active:    true,
	}
}

func tortaCircular() *models.Product {
	return &models.Product{
		Code:      "TT001",
		Name:      "Torta Circular de Vainilla",
		Category:  "Tortas Circulares",
		UnitPrice: 40000,
		Active:    true,
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - New Line", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())

		cart, err := cartService.AddItem(ctx, store.GuestScope("g1"), tortaCuadrada(), 2, "Feliz Cumpleaños")

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, "TC001", cart.Items[0].ProductCode)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, "Feliz Cumpleaños", cart.Items[0].Message)
		assert.NotEmpty(t, cart.Items[0].ID)
	})

	t.Run("Success - Merges Same Product And Message", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		scope := store.GuestScope("g1")

		_, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "Feliz Cumpleaños")
		assert.NoError(t, err)

		// Whitespace differences collapse into the same dedication.
		cart, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 3, "  Feliz Cumpleaños ")

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})

	t.Run("Success - Different Message Keeps Separate Lines", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		scope := store.GuestScope("g1")

		_, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 1, "Feliz Cumpleaños")
		assert.NoError(t, err)

		cart, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 1, "Felicidades")

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 2)
		assert.NotEqual(t, cart.Items[0].ID, cart.Items[1].ID)
	})

	t.Run("Success - Quantity Clamped To Cap", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())

		cart, err := cartService.AddItem(ctx, store.GuestScope("g1"), tortaCuadrada(), 25, "")

		assert.NoError(t, err)
		assert.Equal(t, service.MaxQuantity, cart.Items[0].Quantity)
	})

	t.Run("Success - Merge Clamped To Cap", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		scope := store.GuestScope("g1")

		_, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 15, "")
		assert.NoError(t, err)

		cart, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 15, "")

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, service.MaxQuantity, cart.Items[0].Quantity)
	})

	t.Run("Success - Message Sanitized And Truncated", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())

		cart, err := cartService.AddItem(ctx, store.GuestScope("g1"), tortaCuadrada(), 1, "<script>alert(1)</script>Feliz")

		assert.NoError(t, err)
		assert.Equal(t, "Feliz", cart.Items[0].Message)

		long := "Este mensaje de dedicatoria es demasiado largo para caber en la torta"
		cart, err = cartService.AddItem(ctx, store.GuestScope("g2"), tortaCuadrada(), 1, long)

		assert.NoError(t, err)
		assert.Len(t, cart.Items[0].Message, service.MaxMessageLength)
	})

	t.Run("Success - Accented Message Keeps Whole Runes", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		scope := store.GuestScope("g1")

		// 26 characters but more than 50 bytes; a byte-level cut would tear
		// the last ñ.
		message := "a" + strings.Repeat("ñ", 25)

		cart, err := cartService.AddItem(ctx, scope, tortaCuadrada(), 1, message)

		assert.NoError(t, err)
		assert.Equal(t, message, cart.Items[0].Message)
		assert.True(t, utf8.ValidString(cart.Items[0].Message))

		// Re-adding the identical dedication merges instead of forking a line.
		cart, err = cartService.AddItem(ctx, scope, tortaCuadrada(), 1, message)

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)

		long := strings.Repeat("ñ", service.MaxMessageLength+10)
		cart, err = cartService.AddItem(ctx, store.GuestScope("g2"), tortaCuadrada(), 1, long)

		assert.NoError(t, err)
		assert.Equal(t, service.MaxMessageLength, utf8.RuneCountInString(cart.Items[0].Message))
		assert.True(t, utf8.ValidString(cart.Items[0].Message))
	})

	t.Run("Failure - Inactive Product", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		product := tortaCuadrada()
		product.Active = false

		cart, err := cartService.AddItem(ctx, store.GuestScope("g1"), product, 1, "")

		assert.Error(t, err)
		assert.Nil(t, cart)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
	})

	t.Run("Failure - Quantity Below One", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())

		cart, err := cartService.AddItem(ctx, store.GuestScope("g1"), tortaCuadrada(), 0, "")

		assert.Error(t, err)
		assert.Nil(t, cart)
	})

	t.Run("Scopes Are Partitioned", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())

		_, err := cartService.AddItem(ctx, store.GuestScope("g1"), tortaCuadrada(), 2, "")
		assert.NoError(t, err)

		userCart := cartService.Get(ctx, store.UserScope("12345678-9"))
		assert.Empty(t, userCart.Items)

		guestCart := cartService.Get(ctx, store.GuestScope("g1"))
		assert.Len(t, guestCart.Items, 1)
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	scope := store.GuestScope("g1")

	t.Run("Success - Sets New Quantity", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		added, _ := cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "")

		cart, err := cartService.UpdateQuantity(ctx, scope, added.Items[0].ID, 7)

		assert.NoError(t, err)
		assert.Equal(t, 7, cart.Items[0].Quantity)
	})

	t.Run("Success - Clamps Above Cap", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		added, _ := cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "")

		cart, err := cartService.UpdateQuantity(ctx, scope, added.Items[0].ID, 99)

		assert.NoError(t, err)
		assert.Equal(t, service.MaxQuantity, cart.Items[0].Quantity)
	})

	t.Run("Success - Zero Removes The Line", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		added, _ := cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "")

		cart, err := cartService.UpdateQuantity(ctx, scope, added.Items[0].ID, 0)

		assert.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("Success - Negative Removes The Line", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		added, _ := cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "")

		cart, err := cartService.UpdateQuantity(ctx, scope, added.Items[0].ID, -3)

		assert.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("Failure - Unknown Line", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())

		cart, err := cartService.UpdateQuantity(ctx, scope, "missing", 3)

		assert.Error(t, err)
		assert.Nil(t, cart)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	scope := store.GuestScope("g1")

	t.Run("Success - Removes Existing Line", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		added, _ := cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "")

		cart := cartService.RemoveItem(ctx, scope, added.Items[0].ID)

		assert.Empty(t, cart.Items)
	})

	t.Run("Success - Unknown Line Is A No-Op", func(t *testing.T) {
		cartService := service.NewCartService(store.NewMemoryStore())
		cartService.AddItem(ctx, scope, tortaCuadrada(), 2, "")

		cart := cartService.RemoveItem(ctx, scope, "missing")

		assert.Len(t, cart.Items, 1)
	})
}

func TestSummarize(t *testing.T) {
	cart := &models.Cart{
		Items: []models.CartLineItem{
			{ProductCode: "TC001", UnitPrice: 10000, Quantity: 2},
			{ProductCode: "TT001", UnitPrice: 5000, Quantity: 1},
		},
	}

	t.Run("No Discounts", func(t *testing.T) {
		summary := service.Summarize(cart, models.DiscountEligibility{})

		assert.Equal(t, 3, summary.TotalItems)
		assert.Equal(t, int64(25000), summary.Subtotal)
		assert.Equal(t, int64(0), summary.Discount)
		assert.Equal(t, int64(25000), summary.Total)
	})

	t.Run("Age Discount", func(t *testing.T) {
		summary := service.Summarize(cart, models.DiscountEligibility{AgeDiscount: true})

		assert.Equal(t, int64(12500), summary.Discount)
		assert.Equal(t, int64(12500), summary.Total)
		assert.True(t, summary.AgeDiscount)
	})

	t.Run("Promo Discount", func(t *testing.T) {
		summary := service.Summarize(cart, models.DiscountEligibility{PromoDiscount: true})

		assert.Equal(t, int64(2500), summary.Discount)
		assert.Equal(t, int64(22500), summary.Total)
	})

	t.Run("Discounts Stack Additively", func(t *testing.T) {
		summary := service.Summarize(cart, models.DiscountEligibility{AgeDiscount: true, PromoDiscount: true})

		assert.Equal(t, int64(15000), summary.Discount)
		assert.Equal(t, int64(10000), summary.Total)
	})

	t.Run("Empty Cart", func(t *testing.T) {
		summary := service.Summarize(&models.Cart{}, models.DiscountEligibility{AgeDiscount: true, PromoDiscount: true})

		assert.Equal(t, int64(0), summary.Subtotal)
		assert.Equal(t, int64(0), summary.Total)
	})
}

func TestCartStorageFailure(t *testing.T) {
	ctx := context.Background()
	cartService := service.NewCartService(&failingStore{})

	t.Run("Read Failure Degrades To Empty Cart", func(t *testing.T) {
		view := cartService.View(ctx, store.GuestScope("g1"), models.DiscountEligibility{})

		assert.Empty(t, view.Items)
		assert.Equal(t, int64(0), view.Summary.Total)
	})

	t.Run("Add Still Returns The Line", func(t *testing.T) {
		cart, err := cartService.AddItem(ctx, store.GuestScope("g1"), tortaCuadrada(), 1, "")

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
	})
}
