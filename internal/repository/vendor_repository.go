package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mehdiyara/stockroom/internal/model"
)

// VendorRepo persists supplier records in the `vendors` table.  The
// products_supplied column is a JSON array of product names.
type VendorRepo struct{ DB *sql.DB }

func NewVendorRepo(db *sql.DB) *VendorRepo { return &VendorRepo{DB: db} }

const vendorColumns = "id, full_name, contact_person, email, phone, address, products_supplied, created_at, updated_at"

// Create inserts a vendor.  A duplicate email surfaces as ErrEmailExists.
func (r *VendorRepo) Create(ctx context.Context, v *model.Vendor) error {
	products, err := json.Marshal(v.ProductsSupplied)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO vendors (id, full_name, contact_person, email, phone, address, products_supplied) VALUES (?,?,?,?,?,?,?)",
		v.ID, v.FullName, v.ContactPerson, normalizeEmail(v.Email), v.Phone, v.Address, string(products))
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// GetByID fetches a vendor by id.
func (r *VendorRepo) GetByID(ctx context.Context, id string) (model.Vendor, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+vendorColumns+" FROM vendors WHERE id=? LIMIT 1", id)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return model.Vendor{}, ErrNotFound
	}
	return v, err
}

// EmailTaken reports whether another vendor (any but excludeID) already
// uses the given email.  Empty emails are never considered taken.
func (r *VendorRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vendors WHERE email=? AND id<>?", email, excludeID).Scan(&n)
	return n > 0, err
}

// List returns a page of vendors matching the case-insensitive name
// search, newest first, plus the total match count.
func (r *VendorRepo) List(ctx context.Context, search string, page, limit int) ([]model.Vendor, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(search) + "%"

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vendors WHERE LOWER(full_name) LIKE ?", pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vendorColumns+" FROM vendors WHERE LOWER(full_name) LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// Update overwrites a vendor's mutable fields.
func (r *VendorRepo) Update(ctx context.Context, v *model.Vendor) error {
	products, err := json.Marshal(v.ProductsSupplied)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE vendors SET full_name=?, contact_person=?, email=?, phone=?, address=?, products_supplied=? WHERE id=?",
		v.FullName, v.ContactPerson, normalizeEmail(v.Email), v.Phone, v.Address, string(products), v.ID)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// Delete removes a vendor unless inventory items still reference it.
func (r *VendorRepo) Delete(ctx context.Context, id string) error {
	var linked int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_items WHERE vendor_id=?", id).Scan(&linked); err != nil {
		return err
	}
	if linked > 0 {
		return ErrVendorInUse
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM vendors WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll returns the total number of vendors (dashboard stat).
func (r *VendorRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM vendors").Scan(&n)
	return n, err
}

func scanVendor(row rowScanner) (model.Vendor, error) {
	var (
		v        model.Vendor
		products string
	)
	err := row.Scan(&v.ID, &v.FullName, &v.ContactPerson, &v.Email, &v.Phone,
		&v.Address, &products, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.Vendor{}, err
	}
	if products != "" {
		if err := json.Unmarshal([]byte(products), &v.ProductsSupplied); err != nil {
			return model.Vendor{}, err
		}
	}
	return v, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
