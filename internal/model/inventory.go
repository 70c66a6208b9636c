package model

import "time"

// Item mirrors the `inventory_items` table.  ItemCode is the unique
// business key; VendorID references the supplying vendor.  Prices are
// stored in cents to avoid floating-point money.
type Item struct {
	ID               string    `json:"id"`
	ItemCode         string    `json:"itemCode"`
	ItemName         string    `json:"itemName"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	VendorID         string    `json:"vendorId"`
	VendorName       string    `json:"vendorName,omitempty"` // joined on reads, not a column
	Quantity         int64     `json:"quantity"`
	CostPriceCents   int64     `json:"costPriceCents"`
	RetailPriceCents int64     `json:"retailPriceCents"`
	ReorderLevel     int64     `json:"reorderLevel"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
