package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/assets"
	"github.com/mehdiyara/stockroom/internal/audit"
	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/middleware"
	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/repository"
)

const (
	inventoryBucket     = "inventory"
	defaultReorderLevel = 10
)

// InventoryHandler implements stock CRUD.  Item images ride along as
// multipart files and are stored in the external asset store.
type InventoryHandler struct {
	Items   InventoryStore
	Vendors VendorStore
	Assets  assets.Store
	Audit   audit.Recorder
}

func NewInventoryHandler(items InventoryStore, vendors VendorStore, store assets.Store, rec audit.Recorder) *InventoryHandler {
	return &InventoryHandler{Items: items, Vendors: vendors, Assets: store, Audit: rec}
}

type createItemReq struct {
	ItemCode         string `json:"itemCode" form:"itemCode" validate:"required"`
	ItemName         string `json:"itemName" form:"itemName" validate:"required"`
	Description      string `json:"description" form:"description"`
	Category         string `json:"category" form:"category"`
	VendorID         string `json:"vendorId" form:"vendorId" validate:"required"`
	Quantity         *int64 `json:"quantity" form:"quantity" validate:"required"`
	CostPriceCents   int64  `json:"costPriceCents" form:"costPriceCents" validate:"required"`
	RetailPriceCents int64  `json:"retailPriceCents" form:"retailPriceCents" validate:"required"`
	ReorderLevel     *int64 `json:"reorderLevel" form:"reorderLevel"`
}

type updateItemReq struct {
	ItemName         *string `json:"itemName" form:"itemName"`
	Description      *string `json:"description" form:"description"`
	Category         *string `json:"category" form:"category"`
	VendorID         *string `json:"vendorId" form:"vendorId"`
	Quantity         *int64  `json:"quantity" form:"quantity"`
	CostPriceCents   *int64  `json:"costPriceCents" form:"costPriceCents"`
	RetailPriceCents *int64  `json:"retailPriceCents" form:"retailPriceCents"`
	ReorderLevel     *int64  `json:"reorderLevel" form:"reorderLevel"`
}

// Create adds an inventory item; the item code must be unique and the
// vendor must exist.
func (h *InventoryHandler) Create(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	var req createItemReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpx.BadRequest("Required fields are missing")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	taken, err := h.Items.CodeTaken(ctx, req.ItemCode)
	if err != nil {
		return httpx.Internal("Failed to create inventory item")
	}
	if taken {
		return httpx.Conflict("Item with this code already exists")
	}
	if _, err := h.Vendors.GetByID(ctx, req.VendorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.BadRequest("Vendor does not exist")
		}
		return httpx.Internal("Failed to create inventory item")
	}

	it := model.Item{
		ID:               uuid.NewString(),
		ItemCode:         strings.TrimSpace(req.ItemCode),
		ItemName:         strings.TrimSpace(req.ItemName),
		Description:      req.Description,
		Category:         req.Category,
		VendorID:         req.VendorID,
		Quantity:         *req.Quantity,
		CostPriceCents:   req.CostPriceCents,
		RetailPriceCents: req.RetailPriceCents,
		ReorderLevel:     defaultReorderLevel,
	}
	if req.ReorderLevel != nil {
		it.ReorderLevel = *req.ReorderLevel
	}

	if file, ferr := c.FormFile("image"); ferr == nil && file != nil {
		url, upErr := h.uploadImage(ctx, it.ID, file)
		if upErr != nil {
			return httpx.NewError(http.StatusBadGateway, "Error uploading item image")
		}
		it.ImageURL = url
	}

	if err := h.Items.Create(ctx, &it); err != nil {
		if errors.Is(err, repository.ErrItemCodeExists) {
			return httpx.Conflict("Item with this code already exists")
		}
		return httpx.Internal("Failed to create inventory item")
	}

	h.record(ctx, model.ActionCreateInventory, it.ID,
		fmt.Sprintf("Inventory item %q (%s) created", it.ItemName, it.ItemCode), actor.ID)

	return httpx.Respond(c, http.StatusCreated, "Inventory item created successfully", it)
}

// List returns a paginated, name-searchable item listing with vendor
// names joined in.
func (h *InventoryHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 1, 10)
	search := c.QueryParam("search")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Items.List(ctx, search, page, limit)
	if err != nil {
		return httpx.Internal("Failed to fetch inventory")
	}
	if items == nil {
		items = []model.Item{}
	}
	return httpx.Respond(c, http.StatusOK, "Inventory fetched successfully",
		newPageResult(items, total, page, limit))
}

// GetByID returns one item.
func (h *InventoryHandler) GetByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	it, err := h.Items.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("Inventory item not found")
		}
		return httpx.Internal("Failed to fetch inventory item")
	}
	return httpx.Respond(c, http.StatusOK, "Inventory item fetched successfully", it)
}

// Update patches the provided fields and optionally replaces the item
// image.
func (h *InventoryHandler) Update(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	var req updateItemReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	it, err := h.Items.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("Inventory item not found")
		}
		return httpx.Internal("Failed to update inventory item")
	}

	if req.VendorID != nil && *req.VendorID != it.VendorID {
		if _, err := h.Vendors.GetByID(ctx, *req.VendorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return httpx.BadRequest("Vendor does not exist")
			}
			return httpx.Internal("Failed to update inventory item")
		}
		it.VendorID = *req.VendorID
		it.VendorName = ""
	}
	if req.ItemName != nil {
		if strings.TrimSpace(*req.ItemName) == "" {
			return httpx.BadRequest("Item name is required")
		}
		it.ItemName = strings.TrimSpace(*req.ItemName)
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.Category != nil {
		it.Category = *req.Category
	}
	if req.Quantity != nil {
		it.Quantity = *req.Quantity
	}
	if req.CostPriceCents != nil {
		it.CostPriceCents = *req.CostPriceCents
	}
	if req.RetailPriceCents != nil {
		it.RetailPriceCents = *req.RetailPriceCents
	}
	if req.ReorderLevel != nil {
		it.ReorderLevel = *req.ReorderLevel
	}

	if file, ferr := c.FormFile("image"); ferr == nil && file != nil {
		if name, ok := assetName(it.ImageURL, inventoryBucket); ok {
			if err := h.Assets.Remove(ctx, inventoryBucket, name); err != nil {
				log.Printf("inventory: old image removal failed: %v", err)
			}
		}
		url, upErr := h.uploadImage(ctx, it.ID, file)
		if upErr != nil {
			return httpx.NewError(http.StatusBadGateway, "Error uploading item image")
		}
		it.ImageURL = url
	}

	if err := h.Items.Update(ctx, &it); err != nil {
		return httpx.Internal("Failed to update inventory item")
	}

	h.record(ctx, model.ActionUpdateInventory, it.ID,
		fmt.Sprintf("Inventory item %q (%s) updated", it.ItemName, it.ItemCode), actor.ID)

	return httpx.Respond(c, http.StatusOK, "Inventory updated successfully", it)
}

// Delete removes an item permanently.
func (h *InventoryHandler) Delete(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	it, err := h.Items.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("Inventory item not found")
		}
		return httpx.Internal("Failed to delete inventory item")
	}
	if err := h.Items.Delete(ctx, it.ID); err != nil {
		return httpx.Internal("Failed to delete inventory item")
	}

	h.record(ctx, model.ActionDeleteInventory, it.ID,
		fmt.Sprintf("Inventory item %q (%s) deleted", it.ItemName, it.ItemCode), actor.ID)

	return httpx.Respond(c, http.StatusOK, "Inventory item deleted successfully", nil)
}

func (h *InventoryHandler) uploadImage(ctx context.Context, itemID string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s-%d-%s", itemID, time.Now().UnixMilli(), file.Filename)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.Assets.Upload(ctx, inventoryBucket, name, contentType, src)
}

func (h *InventoryHandler) record(ctx context.Context, action model.Action, entityID, message, performedBy string) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(ctx, audit.Event{
		Action:      action,
		EntityType:  model.EntityInventory,
		EntityID:    entityID,
		Message:     message,
		PerformedBy: performedBy,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}
