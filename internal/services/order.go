package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
)

// OrderService reads what checkout committed: the confirmation view's last
// order, per-scope history, the public tracking lookup and the back-office
// listing.
type OrderService struct {
	store store.Store
}

func NewOrderService(st store.Store) *OrderService {
	return &OrderService{store: st}
}

func (s *OrderService) LastOrder(ctx context.Context, scope string) (*models.Order, error) {
	order := &models.Order{}

	found, err := s.store.Get(ctx, store.LastOrderKey(scope), order)
	if err != nil {
		return nil, errors.StorageError("Failed to read order").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("No hay pedidos recientes")
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	found, err := s.store.Get(ctx, store.OrderKey(id), order)
	if err != nil {
		return nil, errors.StorageError("Failed to read order").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("Pedido no encontrado")
	}

	return order, nil
}

// History returns the scope's committed orders, most recent last. Unreadable
// entries are skipped rather than failing the whole listing.
func (s *OrderService) History(ctx context.Context, scope string) ([]models.Order, error) {
	var ids []int64

	if _, err := s.store.Get(ctx, store.OrderHistoryKey(scope), &ids); err != nil {
		return nil, errors.StorageError("Failed to read order history").WithError(err)
	}

	orders := make([]models.Order, 0, len(ids))

	for _, id := range ids {
		order, err := s.GetOrder(ctx, id)
		if err != nil {
			slog.Warn("Skipping unreadable order in history", slog.Int64("orderId", id), slog.String("error", err.Error()))

			continue
		}

		orders = append(orders, *order)
	}

	return orders, nil
}

// Track authorizes by possession of the order's email. "Not found" and
// "email mismatch" stay distinguishable so the form can guide the customer,
// which knowingly leaks order-id existence.
func (s *OrderService) Track(ctx context.Context, id int64, email string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(order.Customer.Email)) {
		return nil, errors.ForbiddenError("El correo no coincide con el pedido")
	}

	return order, nil
}

// ListAll is the back-office view over every committed order.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	var ids []int64

	if _, err := s.store.Get(ctx, store.OrdersIndexKey, &ids); err != nil {
		return nil, errors.StorageError("Failed to read orders index").WithError(err)
	}

	orders := make([]models.Order, 0, len(ids))

	for _, id := range ids {
		order, err := s.GetOrder(ctx, id)
		if err != nil {
			slog.Warn("Skipping unreadable order in index", slog.Int64("orderId", id), slog.String("error", err.Error()))

			continue
		}

		orders = append(orders, *order)
	}

	return orders, nil
}
