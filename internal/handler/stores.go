package handler

import (
	"context"
	"time"

	"github.com/mehdiyara/stockroom/internal/model"
)

// Handler-side store interfaces.  The MySQL repositories satisfy them;
// tests substitute in-memory fakes.

// UserStore is the credential store as seen by the auth and admin
// handlers.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
	SetSession(ctx context.Context, id, fingerprint string, lastLogin time.Time) error
	RotateFingerprint(ctx context.Context, id, fingerprint string) error
	ClearSession(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateRole(ctx context.Context, id string, role model.Role) error
	UpdateAvatar(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}

// VendorStore is the vendor datastore as seen by the vendor handler.
type VendorStore interface {
	Create(ctx context.Context, v *model.Vendor) error
	GetByID(ctx context.Context, id string) (model.Vendor, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Vendor, int64, error)
	Update(ctx context.Context, v *model.Vendor) error
	Delete(ctx context.Context, id string) error
	CountAll(ctx context.Context) (int64, error)
}

// InventoryStore is the inventory datastore as seen by the inventory
// handler.
type InventoryStore interface {
	Create(ctx context.Context, it *model.Item) error
	GetByID(ctx context.Context, id string) (model.Item, error)
	CodeTaken(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Item, int64, error)
	Update(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, id string) error
	CountAll(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context) (int64, error)
}

// ActivityStore is the audit-log read side used by the dashboard.
type ActivityStore interface {
	ListRecent(ctx context.Context, page, limit int) ([]model.Activity, int64, error)
}
