package model

import "time"

// Vendor mirrors the `vendors` table.  Only FullName is mandatory;
// Email, when present, is unique and stored lowercase.
type Vendor struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName"`
	ContactPerson    string    `json:"contactPerson,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	ProductsSupplied []string  `json:"productsSupplied,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
