package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mehdiyara/stockroom/internal/model"
)

// InventoryRepo persists stock records in the `inventory_items` table.
// Reads join the vendors table so callers get the supplier name without
// a second query.
type InventoryRepo struct{ DB *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{DB: db} }

const itemSelect = `SELECT i.id, i.item_code, i.item_name, i.description, i.category,
	i.vendor_id, v.full_name, i.quantity, i.cost_price_cents, i.retail_price_cents,
	i.reorder_level, i.image_url, i.created_at, i.updated_at
	FROM inventory_items i JOIN vendors v ON v.id = i.vendor_id`

// Create inserts an inventory item.  A duplicate item code surfaces as
// ErrItemCodeExists.
func (r *InventoryRepo) Create(ctx context.Context, it *model.Item) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO inventory_items
		 (id, item_code, item_name, description, category, vendor_id, quantity,
		  cost_price_cents, retail_price_cents, reorder_level, image_url)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		it.ID, it.ItemCode, it.ItemName, it.Description, it.Category, it.VendorID,
		it.Quantity, it.CostPriceCents, it.RetailPriceCents, it.ReorderLevel, it.ImageURL)
	if err != nil && isDuplicate(err) {
		return ErrItemCodeExists
	}
	return err
}

// GetByID fetches one item with its vendor name joined in.
func (r *InventoryRepo) GetByID(ctx context.Context, id string) (model.Item, error) {
	row := r.DB.QueryRowContext(ctx, itemSelect+" WHERE i.id=? LIMIT 1", id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return model.Item{}, ErrNotFound
	}
	return it, err
}

// CodeTaken reports whether an item code is already in use.
func (r *InventoryRepo) CodeTaken(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_items WHERE item_code=?", code).Scan(&n)
	return n > 0, err
}

// List returns a page of items matching the case-insensitive name
// search, newest first, plus the total match count.
func (r *InventoryRepo) List(ctx context.Context, search string, page, limit int) ([]model.Item, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(search) + "%"

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_items WHERE LOWER(item_name) LIKE ?", pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		itemSelect+" WHERE LOWER(i.item_name) LIKE ? ORDER BY i.created_at DESC LIMIT ? OFFSET ?",
		pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Update overwrites an item's mutable fields.
func (r *InventoryRepo) Update(ctx context.Context, it *model.Item) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_items SET item_name=?, description=?, category=?, vendor_id=?,
		 quantity=?, cost_price_cents=?, retail_price_cents=?, reorder_level=?, image_url=?
		 WHERE id=?`,
		it.ItemName, it.Description, it.Category, it.VendorID, it.Quantity,
		it.CostPriceCents, it.RetailPriceCents, it.ReorderLevel, it.ImageURL, it.ID)
	return err
}

// Delete removes an item permanently.
func (r *InventoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM inventory_items WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll returns the total number of items (dashboard stat).
func (r *InventoryRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory_items").Scan(&n)
	return n, err
}

// CountLowStock counts items whose quantity has fallen below their own
// reorder level (dashboard stat).
func (r *InventoryRepo) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_items WHERE quantity < reorder_level").Scan(&n)
	return n, err
}

func scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.ItemCode, &it.ItemName, &it.Description, &it.Category,
		&it.VendorID, &it.VendorName, &it.Quantity, &it.CostPriceCents,
		&it.RetailPriceCents, &it.ReorderLevel, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}
