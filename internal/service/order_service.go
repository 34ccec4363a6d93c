package service

import (
	"context"
	"strings"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// OrderService handles order business logic
type OrderService struct {
	orders    OrderRepository
	carts     CartStore
	locker    Locker
	inventory InventoryAPI
	shipping  ShipmentAPI
	currency  string
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderRepository,
	carts CartStore,
	locker Locker,
	inventory InventoryAPI,
	shipping ShipmentAPI,
	currency string,
	lockTTL time.Duration,
) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		locker:    locker,
		inventory: inventory,
		shipping:  shipping,
		currency:  currency,
		lockTTL:   lockTTL,
		logger:    util.GetLogger(),
	}
}

// CheckoutResponse represents the response after a successful checkout
type CheckoutResponse struct {
	OrderID    int64  `json:"order_id"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

// OrderDetails is an order with its items
type OrderDetails struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// Checkout turns the cart of email into an order with a reservation and a shipment draft.
// The order.created event is stored with the order and relayed by the outbox.
func (s *OrderService) Checkout(ctx context.Context, email string, addr models.Address) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	lockKey := "checkout:" + email
	token, ok, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, "checkout lock unavailable", err)
	}
	if !ok {
		util.CheckoutsFailedTotal.WithLabelValues("in_progress").Inc()
		return nil, apperr.New(apperr.CodeConflict, "checkout already in progress")
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.logger.Warn("Failed to release checkout lock", zap.String("email", email), zap.Error(err))
		}
	}()

	lines, err := s.carts.GetCart(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, "cart unavailable", err)
	}
	if len(lines) == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, apperr.New(apperr.CodeEmptyCart, "cart is empty")
	}

	items, total := orderItemsFromCart(lines)

	if err := s.inventory.Reserve(ctx, models.LineItems(items)); err != nil {
		if apperr.IsCode(err, apperr.CodeUpstreamUnavailable) {
			util.CheckoutsFailedTotal.WithLabelValues("catalog_unavailable").Inc()
			return nil, apperr.Wrap(apperr.CodeCatalogUnavailable, "catalog unavailable", err)
		}
		util.CheckoutsFailedTotal.WithLabelValues("reservation_failed").Inc()
		return nil, apperr.Wrap(apperr.CodeReservationFailed, "inventory reservation failed", err)
	}

	addr.Country = strings.ToUpper(addr.Country)
	order := &models.Order{
		UserEmail:  email,
		Status:     models.OrderStatusCreated,
		TotalCents: total,
		Currency:   s.currency,
	}

	err = s.orders.CreateOrder(ctx, order, items, func(o *models.Order) models.DomainEvent {
		return models.NewOrderCreated(o, items, &addr)
	})
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("persist_failed").Inc()
		s.logger.Error("Order not persisted after reservation; reservation needs manual release",
			zap.String("email", email),
			zap.Any("items", models.LineItems(items)),
			zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to persist order", err)
	}

	s.logger.Info("Order created", zap.Int64("order_id", order.ID), zap.Int64("total_cents", total))

	_, err = s.shipping.CreateShipment(ctx, models.CreateShipmentRequest{
		OrderID:   order.ID,
		UserEmail: email,
		Address:   addr,
	})
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("shipment_failed").Inc()
		s.logger.Error("Shipment draft not created", zap.Int64("order_id", order.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeShipmentCreateFailed, "failed to create shipment", err)
	}

	if err := s.carts.ClearCart(ctx, email); err != nil {
		s.logger.Warn("Failed to clear cart after checkout", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	util.CheckoutsTotal.Inc()
	return &CheckoutResponse{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
	}, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderDetails, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderDetails{Order: *order, Items: items}, nil
}

func orderItemsFromCart(lines []models.CartLine) ([]models.OrderItem, int64) {
	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, l := range lines {
		items = append(items, models.OrderItem{
			ProductID:      l.ProductID,
			Qty:            l.Qty,
			UnitPriceCents: l.UnitPriceCents,
			TitleSnapshot:  l.Title,
		})
		total += int64(l.Qty) * l.UnitPriceCents
	}
	return items, total
}
