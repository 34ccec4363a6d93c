package store

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrder inserts the order, its items and the event built by newEvent in one transaction.
func (s *Store) CreateOrder(
	ctx context.Context,
	order *models.Order,
	items []models.OrderItem,
	newEvent func(*models.Order) models.DomainEvent,
) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO orders (user_email, status, total_cents, currency)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`

		if err := tx.GetContext(ctx, order, query,
			order.UserEmail, order.Status, order.TotalCents, order.Currency); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.GetContext(ctx, &items[i].ID, `
				INSERT INTO order_items (order_id, product_id, qty, unit_price_cents, title_snapshot)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				order.ID, items[i].ProductID, items[i].Qty, items[i].UnitPriceCents, items[i].TitleSnapshot); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		if newEvent == nil {
			return nil
		}
		return insertOutbox(ctx, tx, models.AggregateOrder, order.ID, newEvent(order))
	})
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT id, user_email, status, total_cents, currency, created_at, updated_at FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeNotFound, "order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, order_id, product_id, qty, unit_price_cents, title_snapshot
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	return items, err
}

// MarkOrderPaid moves a CREATED order to PAID. It reports false when the order was not CREATED.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		models.OrderStatusPaid, orderID, models.OrderStatusCreated)
	if err != nil {
		return false, fmt.Errorf("failed to mark order %d paid: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
