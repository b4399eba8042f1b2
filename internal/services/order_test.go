package service_test

import (
	"context"
	"testing"
	"time"

	appErrors "github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/stretchr/testify/assert"
)

func seedOrder(t *testing.T, st store.Store, scope string, id int64, email string) *models.Order {
	t.Helper()

	ctx := context.Background()
	order := &models.Order{
		ID:           id,
		DeliveryDate: "2026-09-15",
		Customer:     models.CheckoutForm{Name: "Ana Soto", Email: email},
		Items:        []models.CartLineItem{{ProductCode: "TC001", UnitPrice: 45000, Quantity: 1}},
		Subtotal:     45000,
		Total:        45000,
		Status:       models.OrderStatusPending,
		SyncState:    models.SyncStateNotSynced,
		CreatedAt:    time.Now(),
	}

	assert.NoError(t, st.Set(ctx, store.OrderKey(id), order))
	assert.NoError(t, st.Set(ctx, store.LastOrderKey(scope), order))

	var history []int64
	st.Get(ctx, store.OrderHistoryKey(scope), &history)
	history = append(history, id)
	assert.NoError(t, st.Set(ctx, store.OrderHistoryKey(scope), history))

	var index []int64
	st.Get(ctx, store.OrdersIndexKey, &index)
	index = append(index, id)
	assert.NoError(t, st.Set(ctx, store.OrdersIndexKey, index))

	return order
}

func TestLastOrder(t *testing.T) {
	ctx := context.Background()
	scope := store.UserScope("12345678-9")

	t.Run("Success", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, scope, 1000001, "ana@example.com")

		order, err := orderService.LastOrder(ctx, scope)

		assert.NoError(t, err)
		assert.Equal(t, int64(1000001), order.ID)
	})

	t.Run("Failure - No Orders Yet", func(t *testing.T) {
		orderService := service.NewOrderService(store.NewMemoryStore())

		order, err := orderService.LastOrder(ctx, scope)

		assert.Error(t, err)
		assert.Nil(t, order)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	scope := store.UserScope("12345678-9")

	t.Run("Success - Ordered Oldest First", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, scope, 1000001, "ana@example.com")
		seedOrder(t, st, scope, 1000002, "ana@example.com")

		orders, err := orderService.History(ctx, scope)

		assert.NoError(t, err)
		assert.Len(t, orders, 2)
		assert.Equal(t, int64(1000001), orders[0].ID)
		assert.Equal(t, int64(1000002), orders[1].ID)
	})

	t.Run("Success - Empty History", func(t *testing.T) {
		orderService := service.NewOrderService(store.NewMemoryStore())

		orders, err := orderService.History(ctx, scope)

		assert.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("Success - Skips Missing Orders", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, scope, 1000001, "ana@example.com")

		var history []int64
		st.Get(ctx, store.OrderHistoryKey(scope), &history)
		history = append(history, 9999999)
		assert.NoError(t, st.Set(ctx, store.OrderHistoryKey(scope), history))

		orders, err := orderService.History(ctx, scope)

		assert.NoError(t, err)
		assert.Len(t, orders, 1)
	})
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	scope := store.GuestScope("g1")

	t.Run("Success", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, scope, 1000001, "ana@example.com")

		order, err := orderService.Track(ctx, 1000001, "ana@example.com")

		assert.NoError(t, err)
		assert.Equal(t, int64(1000001), order.ID)
	})

	t.Run("Success - Email Match Is Case Insensitive", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, scope, 1000001, "ana@example.com")

		order, err := orderService.Track(ctx, 1000001, " ANA@Example.COM ")

		assert.NoError(t, err)
		assert.NotNil(t, order)
	})

	t.Run("Failure - Unknown Order", func(t *testing.T) {
		orderService := service.NewOrderService(store.NewMemoryStore())

		order, err := orderService.Track(ctx, 1000001, "ana@example.com")

		assert.Error(t, err)
		assert.Nil(t, order)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Failure - Email Mismatch", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, scope, 1000001, "ana@example.com")

		order, err := orderService.Track(ctx, 1000001, "otra@example.com")

		assert.Error(t, err)
		assert.Nil(t, order)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
	})
}

func TestListAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Across Scopes", func(t *testing.T) {
		st := store.NewMemoryStore()
		orderService := service.NewOrderService(st)
		seedOrder(t, st, store.GuestScope("g1"), 1000001, "ana@example.com")
		seedOrder(t, st, store.UserScope("12345678-9"), 1000002, "pedro@example.com")

		orders, err := orderService.ListAll(ctx)

		assert.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("Success - Empty", func(t *testing.T) {
		orderService := service.NewOrderService(store.NewMemoryStore())

		orders, err := orderService.ListAll(ctx)

		assert.NoError(t, err)
		assert.Empty(t, orders)
	})
}
