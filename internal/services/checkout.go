package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/metrics"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/milsabores/storefront-gateway/pkg/bakery"
	"github.com/milsabores/storefront-gateway/pkg/sendGrid"
)

const deliveryDateLayout = "2006-01-02"

// CheckoutService turns a validated cart plus shipping/payment form into a
// committed order, re-checking the live catalog right before commit. The
// backend sync runs as a separate, single-flight step so a committed order is
// never lost to a network failure.
type CheckoutService struct {
	store          store.Store
	client         bakery.Client
	carts          *CartService
	notifier       *NotificationService
	email          sendGrid.EmailService
	minLeadTime    time.Duration
	syncRetryAfter time.Duration

	mu       sync.Mutex
	inflight map[int64]bool
}

func NewCheckoutService(st store.Store, client bakery.Client, carts *CartService, notifier *NotificationService, email sendGrid.EmailService, minLeadTime, syncRetryAfter time.Duration) *CheckoutService {
	return &CheckoutService{
		store:          st,
		client:         client,
		carts:          carts,
		notifier:       notifier,
		email:          email,
		minLeadTime:    minLeadTime,
		syncRetryAfter: syncRetryAfter,
		inflight:       make(map[int64]bool),
	}
}

// ValidateForm applies the field rules and returns field-keyed errors; an
// empty map means the form passed.
func (s *CheckoutService) ValidateForm(form *models.CheckoutForm, now time.Time) map[string]string {
	fieldErrors := make(map[string]string)

	if strings.TrimSpace(form.Name) == "" {
		fieldErrors["name"] = "El nombre es obligatorio"
	}

	if strings.TrimSpace(form.Email) == "" || !strings.Contains(form.Email, "@") {
		fieldErrors["email"] = "Ingresa un correo válido"
	}

	if strings.TrimSpace(form.Address) == "" {
		fieldErrors["address"] = "La dirección es obligatoria"
	}

	switch form.PaymentMethod {
	case models.PaymentMethodWebpay:
		card := strings.ReplaceAll(form.CardNumber, " ", "")
		if len(card) != 16 || strings.IndexFunc(card, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			fieldErrors["card_number"] = "La tarjeta debe tener 16 dígitos"
		}
	case models.PaymentMethodTransfer:
		if strings.TrimSpace(form.TransferReference) == "" {
			fieldErrors["transfer_reference"] = "Ingresa el comprobante de transferencia"
		}
	default:
		fieldErrors["payment_method"] = "Selecciona un medio de pago"
	}

	if form.DeliveryDate == "" {
		fieldErrors["delivery_date"] = "La fecha de entrega es obligatoria"
	} else if delivery, err := time.ParseInLocation(deliveryDateLayout, form.DeliveryDate, now.Location()); err != nil {
		fieldErrors["delivery_date"] = "La fecha de entrega no es válida"
	} else if delivery.Sub(now) < s.minLeadTime {
		// Fractional-day comparison, not calendar-day truncation: the kitchen
		// needs the full lead time from the moment of checkout.
		fieldErrors["delivery_date"] = "La entrega requiere al menos 2 días de anticipación"
	}

	return fieldErrors
}

// CheckAvailability refetches the live catalog (never a cached copy) and
// returns the names of cart lines whose product is gone or deactivated.
func (s *CheckoutService) CheckAvailability(ctx context.Context, items []models.CartLineItem) ([]string, error) {
	catalog, err := s.client.ListProducts(ctx)
	if err != nil {
		return nil, errors.UpstreamError("No se pudo verificar la disponibilidad de los productos").WithError(err)
	}

	active := make(map[string]bool, len(catalog))

	for _, product := range catalog {
		active[product.Code] = product.Active
	}

	var conflicts []string

	for _, item := range items {
		if !active[item.ProductCode] {
			conflicts = append(conflicts, item.Name)
		}
	}

	return conflicts, nil
}

// Commit validates, re-checks availability and persists the order snapshot.
// The order write happens before the cart clear, so a crash in between
// strands cart items instead of losing a committed order. Field errors are
// returned separately so the form can render them inline.
func (s *CheckoutService) Commit(ctx context.Context, scope string, form *models.CheckoutForm, eligibility models.DiscountEligibility) (*models.Order, map[string]string, error) {
	cart := s.carts.Get(ctx, scope)

	if len(cart.Items) == 0 {
		metrics.CheckoutCommits.WithLabelValues("error").Inc()

		return nil, nil, errors.BadRequestError("No puedes finalizar una compra con el carrito vacío")
	}

	if fieldErrors := s.ValidateForm(form, time.Now()); len(fieldErrors) > 0 {
		metrics.CheckoutCommits.WithLabelValues("validation").Inc()
		s.notifier.Push(ctx, scope, models.NotificationWarning, "Revisa los campos marcados antes de continuar")

		return nil, fieldErrors, errors.ValidationError("El formulario tiene errores")
	}

	conflicts, err := s.CheckAvailability(ctx, cart.Items)
	if err != nil {
		metrics.CheckoutCommits.WithLabelValues("error").Inc()
		s.notifier.Push(ctx, scope, models.NotificationDanger, "No se pudo verificar la disponibilidad, intenta nuevamente")

		return nil, nil, err
	}

	if len(conflicts) > 0 {
		metrics.CheckoutCommits.WithLabelValues("conflict").Inc()
		message := "Algunos productos ya no están disponibles: " + strings.Join(conflicts, ", ")
		s.notifier.Push(ctx, scope, models.NotificationDanger, message)

		// The cart is left untouched: resolving the conflict is the
		// customer's call, not an automatic removal.
		return nil, nil, errors.AvailabilityConflictError(message)
	}

	orderID, err := s.nextOrderID(ctx)
	if err != nil {
		metrics.CheckoutCommits.WithLabelValues("error").Inc()
		s.notifier.Push(ctx, scope, models.NotificationDanger, "No se pudo guardar tu pedido, no se realizó el cobro")

		return nil, nil, errors.StorageError("Failed to allocate order id").WithError(err)
	}

	now := time.Now()
	summary := Summarize(cart, eligibility)

	order := &models.Order{
		ID:           orderID,
		Scope:        scope,
		IssueDate:    now.Format(deliveryDateLayout),
		IssueTime:    now.Format("15:04"),
		DeliveryDate: form.DeliveryDate,
		Customer:     *form,
		Items:        cart.Items,
		Subtotal:     summary.Subtotal,
		Discount:     summary.Discount,
		Total:        summary.Total,
		Status:       models.OrderStatusPending,
		SyncState:    models.SyncStateNotSynced,
		CreatedAt:    now,
	}

	if err := s.store.Set(ctx, store.OrderKey(order.ID), order); err != nil {
		metrics.CheckoutCommits.WithLabelValues("error").Inc()
		s.notifier.Push(ctx, scope, models.NotificationDanger, "No se pudo guardar tu pedido, no se realizó el cobro")

		return nil, nil, errors.StorageError("Failed to persist order").WithError(err)
	}

	if err := s.store.Set(ctx, store.LastOrderKey(scope), order); err != nil {
		metrics.CheckoutCommits.WithLabelValues("error").Inc()
		s.notifier.Push(ctx, scope, models.NotificationDanger, "No se pudo guardar tu pedido, no se realizó el cobro")

		return nil, nil, errors.StorageError("Failed to persist order").WithError(err)
	}

	s.appendHistory(ctx, scope, order.ID)
	s.carts.Clear(ctx, scope)

	metrics.CheckoutCommits.WithLabelValues("committed").Inc()
	s.notifier.Push(ctx, scope, models.NotificationSuccess, fmt.Sprintf("Pedido #%d creado", order.ID))
	slog.Info("Order committed", slog.Int64("orderId", order.ID), slog.String("scope", scope), slog.Int64("total", order.Total))

	return order, nil, nil
}

// nextOrderID draws a random 7-digit id and redraws when another instance
// already committed an order under it. The store is shared, so an unchecked
// draw could silently replace someone else's order.
func (s *CheckoutService) nextOrderID(ctx context.Context) (int64, error) {
	for attempt := 0; attempt < 10; attempt++ {
		id := rand.Int64N(9_000_000) + 1_000_000

		found, err := s.store.Get(ctx, store.OrderKey(id), &models.Order{})
		if err != nil {
			return 0, err
		}

		if !found {
			return id, nil
		}
	}

	return 0, fmt.Errorf("no free order id after 10 draws")
}

// appendHistory is best effort: the order record itself is already durable.
func (s *CheckoutService) appendHistory(ctx context.Context, scope string, orderID int64) {
	var history []int64

	if _, err := s.store.Get(ctx, store.OrderHistoryKey(scope), &history); err != nil {
		slog.Warn("Failed to read order history", slog.String("scope", scope), slog.String("error", err.Error()))
	}

	history = append(history, orderID)

	if err := s.store.Set(ctx, store.OrderHistoryKey(scope), history); err != nil {
		slog.Warn("Failed to persist order history", slog.String("scope", scope), slog.String("error", err.Error()))
	}

	var index []int64

	if _, err := s.store.Get(ctx, store.OrdersIndexKey, &index); err != nil {
		slog.Warn("Failed to read orders index", slog.String("error", err.Error()))
	}

	index = append(index, orderID)

	if err := s.store.Set(ctx, store.OrdersIndexKey, index); err != nil {
		slog.Warn("Failed to persist orders index", slog.String("error", err.Error()))
	}
}

// SyncOrder pushes a committed order to the backend exactly once. The guard
// is two-layered: an in-process latch collapses concurrent invocations, and
// the persisted sync state survives restarts. A successful sync is terminal,
// a failed one reverts to not_synced and may be retried. Sync failure is not
// fatal to the purchase; the local receipt stands.
func (s *CheckoutService) SyncOrder(ctx context.Context, scope, token string, orderID int64) (*models.Order, error) {
	order := &models.Order{}

	found, err := s.store.Get(ctx, store.OrderKey(orderID), order)
	if err != nil {
		return nil, errors.StorageError("Failed to read order").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("Order not found")
	}

	if order.Scope != scope {
		// Same answer as a missing order, so probing ids from a foreign
		// session reveals nothing.
		return nil, errors.NotFoundError("Order not found")
	}

	if order.SyncState == models.SyncStateSynced {
		return order, nil
	}

	if order.SyncState == models.SyncStateSyncing && time.Since(order.SyncStarted) < s.syncRetryAfter {
		// Another attempt is in flight, or a crashed one is still within its
		// grace period.
		return order, nil
	}

	s.mu.Lock()
	if s.inflight[orderID] {
		s.mu.Unlock()

		return order, nil
	}
	s.inflight[orderID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, orderID)
		s.mu.Unlock()
	}()

	// Mark syncing before the network call: a duplicate invocation observing
	// this state backs off instead of double-posting.
	order.SyncState = models.SyncStateSyncing
	order.SyncStarted = time.Now()

	if err := s.store.Set(ctx, store.OrderKey(orderID), order); err != nil {
		return nil, errors.StorageError("Failed to persist order sync state").WithError(err)
	}

	result, err := s.client.CreateOrder(ctx, token, order)
	if err != nil {
		metrics.OrderSyncAttempts.WithLabelValues("failure").Inc()
		slog.Warn("Order sync failed, keeping local receipt", slog.Int64("orderId", orderID), slog.String("error", err.Error()))

		order.SyncState = models.SyncStateNotSynced
		order.SyncStarted = time.Time{}

		if persistErr := s.store.Set(ctx, store.OrderKey(orderID), order); persistErr != nil {
			slog.Error("Failed to revert order sync state", slog.Int64("orderId", orderID), slog.String("error", persistErr.Error()))
		}

		s.notifier.Push(ctx, scope, models.NotificationWarning, "Tu pedido quedó registrado localmente, pero aún no se sincroniza. Conserva tu comprobante.")

		return order, nil
	}

	metrics.OrderSyncAttempts.WithLabelValues("success").Inc()

	order.SyncState = models.SyncStateSynced
	order.SyncStarted = time.Time{}

	if result.ID != 0 {
		order.BackendID = result.ID
	}

	if result.Status != "" {
		order.Status = models.OrderStatus(result.Status)
	}

	if err := s.store.Set(ctx, store.OrderKey(orderID), order); err != nil {
		slog.Error("Failed to persist synced order", slog.Int64("orderId", orderID), slog.String("error", err.Error()))
	}

	if err := s.store.Set(ctx, store.LastOrderKey(scope), order); err != nil {
		slog.Warn("Failed to refresh last order", slog.String("scope", scope), slog.String("error", err.Error()))
	}

	s.notifier.Push(ctx, scope, models.NotificationSuccess, fmt.Sprintf("Pedido #%d confirmado", order.ID))
	s.sendReceipt(order)

	return order, nil
}

func (s *CheckoutService) sendReceipt(order *models.Order) {
	if s.email == nil || order.Customer.Email == "" {
		return
	}

	subject := fmt.Sprintf("Comprobante de tu pedido #%d", order.ID)
	body := fmt.Sprintf(
		"Hola %s,\n\nTu pedido #%d fue confirmado.\nFecha de entrega: %s\nTotal: $%d CLP\n\nPastelería Mil Sabores",
		order.Customer.Name, order.ID, order.DeliveryDate, order.Total,
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.email.Send(ctx, order.Customer.Email, subject, body, ""); err != nil {
			slog.Warn("Failed to send order receipt email", slog.Int64("orderId", order.ID), slog.String("error", err.Error()))
		}
	}()
}
