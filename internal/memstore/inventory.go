// Package memstore holds in-memory implementations of the service storage interfaces.
// They follow the same rules as the Postgres and Redis backends and are used by tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
)

// Inventory is an in-memory product catalog and stock ledger.
type Inventory struct {
	mu       sync.Mutex
	products map[int64]models.Product
	records  map[int64]*models.InventoryRecord
	refs     map[string]bool
}

func NewInventory() *Inventory {
	return &Inventory{
		products: make(map[int64]models.Product),
		records:  make(map[int64]*models.InventoryRecord),
		refs:     make(map[string]bool),
	}
}

// AddProduct registers an active product with inStock units on hand.
func (inv *Inventory) AddProduct(p models.Product, inStock int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.products[p.ID] = p
	inv.records[p.ID] = &models.InventoryRecord{ProductID: p.ID, InStock: inStock, UpdatedAt: time.Now()}
}

func (inv *Inventory) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	p, ok := inv.products[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "product not found: %d", id)
	}
	return &p, nil
}

func (inv *Inventory) GetInventory(_ context.Context, productID int64) (*models.InventoryRecord, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	rec, ok := inv.records[productID]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", productID)
	}
	cp := *rec
	return &cp, nil
}

// Reserve checks every line before touching any record.
func (inv *Inventory) Reserve(_ context.Context, items []models.LineItem) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	want := make(map[int64]int)
	for _, it := range items {
		rec, ok := inv.records[it.ProductID]
		if !ok {
			return apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", it.ProductID)
		}
		want[it.ProductID] += it.Qty
		if !rec.CanReserve(want[it.ProductID]) {
			return apperr.Newf(apperr.CodeInsufficientStock, "insufficient stock for product_id %d", it.ProductID)
		}
	}
	for _, it := range items {
		inv.records[it.ProductID].Reserved += it.Qty
	}
	return nil
}

func (inv *Inventory) Commit(_ context.Context, reference string, items []models.LineItem) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if reference != "" && inv.refs[reference] {
		return false, nil
	}
	if err := inv.requireRecords(items); err != nil {
		return false, err
	}
	for _, it := range items {
		inv.records[it.ProductID].ApplyCommit(it.Qty)
	}
	if reference != "" {
		inv.refs[reference] = true
	}
	return true, nil
}

func (inv *Inventory) Release(_ context.Context, items []models.LineItem) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if err := inv.requireRecords(items); err != nil {
		return err
	}
	for _, it := range items {
		inv.records[it.ProductID].ApplyRelease(it.Qty)
	}
	return nil
}

func (inv *Inventory) Restock(_ context.Context, items []models.LineItem) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, it := range items {
		rec, ok := inv.records[it.ProductID]
		if !ok {
			rec = &models.InventoryRecord{ProductID: it.ProductID}
			inv.records[it.ProductID] = rec
		}
		rec.ApplyRestock(it.Qty)
		rec.UpdatedAt = time.Now()
	}
	return nil
}

func (inv *Inventory) requireRecords(items []models.LineItem) error {
	for _, it := range items {
		if _, ok := inv.records[it.ProductID]; !ok {
			return apperr.Newf(apperr.CodeNotFound, "inventory missing for product_id %d", it.ProductID)
		}
	}
	return nil
}
