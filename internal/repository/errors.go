// Package repository implements MySQL persistence for users, vendors,
// inventory items and audit activities.  Sentinel errors defined here
// let handlers map storage failures onto the API error taxonomy without
// inspecting driver error strings.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist.  Handlers
// translate it into HTTP 404 (or 401 during credential checks).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a unique email constraint is
// violated.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrItemCodeExists is returned when an inventory item code collides.
var ErrItemCodeExists = errors.New("item code already exists")

// ErrVendorInUse is returned when deleting a vendor that still has
// inventory items referencing it.
var ErrVendorInUse = errors.New("vendor has linked inventory items")
