package store

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetProductByID retrieves an active product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT id, title, price_cents, currency FROM products WHERE id = $1 AND active", id)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeNotFound, "product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetInventory retrieves inventory for a product
func (s *Store) GetInventory(ctx context.Context, productID int64) (*models.InventoryRecord, error) {
	var inv models.InventoryRecord
	err := s.db.GetContext(ctx, &inv,
		"SELECT product_id, in_stock, reserved, updated_at FROM inventory WHERE product_id = $1", productID)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", productID)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Reserve increments reserved for every item or for none of them.
func (s *Store) Reserve(ctx context.Context, items []models.LineItem) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, it := range items {
			res, err := tx.ExecContext(ctx,
				`UPDATE inventory SET reserved = reserved + $1, updated_at = NOW()
				 WHERE product_id = $2 AND in_stock - reserved >= $1`,
				it.Qty, it.ProductID)
			if err != nil {
				return fmt.Errorf("failed to reserve product %d: %w", it.ProductID, err)
			}
			if n, _ := res.RowsAffected(); n == 1 {
				continue
			}

			exists, err := inventoryExists(ctx, tx, it.ProductID)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", it.ProductID)
			}
			return apperr.Newf(apperr.CodeInsufficientStock, "insufficient stock for product_id %d", it.ProductID)
		}
		return nil
	})
}

// Commit takes items out of stock. A non-empty reference is applied at most once;
// applied is false when the reference was already recorded.
func (s *Store) Commit(ctx context.Context, reference string, items []models.LineItem) (bool, error) {
	applied := true
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if reference != "" {
			first, err := recordOperation(ctx, tx, "commit", reference)
			if err != nil {
				return err
			}
			if !first {
				applied = false
				return nil
			}
		}

		for _, it := range items {
			res, err := tx.ExecContext(ctx,
				`UPDATE inventory
				 SET in_stock = GREATEST(in_stock - $1, 0), reserved = GREATEST(reserved - $1, 0), updated_at = NOW()
				 WHERE product_id = $2`,
				it.Qty, it.ProductID)
			if err != nil {
				return fmt.Errorf("failed to commit product %d: %w", it.ProductID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", it.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Release hands reserved quantity back without touching stock.
func (s *Store) Release(ctx context.Context, items []models.LineItem) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, it := range items {
			res, err := tx.ExecContext(ctx,
				"UPDATE inventory SET reserved = GREATEST(reserved - $1, 0), updated_at = NOW() WHERE product_id = $2",
				it.Qty, it.ProductID)
			if err != nil {
				return fmt.Errorf("failed to release product %d: %w", it.ProductID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", it.ProductID)
			}
		}
		return nil
	})
}

// Restock adds stock, creating records that do not exist yet.
func (s *Store) Restock(ctx context.Context, items []models.LineItem) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, it := range items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO inventory (product_id, in_stock, reserved) VALUES ($1, GREATEST($2, 0), 0)
				 ON CONFLICT (product_id) DO UPDATE
				 SET in_stock = inventory.in_stock + EXCLUDED.in_stock, updated_at = NOW()`,
				it.ProductID, it.Qty)
			if err != nil {
				return fmt.Errorf("failed to restock product %d: %w", it.ProductID, err)
			}
		}
		return nil
	})
}

func inventoryExists(ctx context.Context, tx *sqlx.Tx, productID int64) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM inventory WHERE product_id = $1)", productID)
	return exists, err
}

func recordOperation(ctx context.Context, tx *sqlx.Tx, operation, reference string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_operations (operation, reference) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		operation, reference)
	if err != nil {
		return false, fmt.Errorf("failed to record %s %s: %w", operation, reference, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
