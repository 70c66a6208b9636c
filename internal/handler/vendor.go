package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/audit"
	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/middleware"
	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/repository"
)

// VendorHandler implements supplier CRUD with search/pagination.
type VendorHandler struct {
	Vendors VendorStore
	Audit   audit.Recorder
}

func NewVendorHandler(vendors VendorStore, rec audit.Recorder) *VendorHandler {
	return &VendorHandler{Vendors: vendors, Audit: rec}
}

type createVendorReq struct {
	FullName         string   `json:"fullName" validate:"required"`
	ContactPerson    string   `json:"contactPerson"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Phone            string   `json:"phone"`
	Address          string   `json:"address"`
	ProductsSupplied []string `json:"productsSupplied"`
}

// updateVendorReq uses pointers so absent fields leave the stored value
// untouched.
type updateVendorReq struct {
	FullName         *string   `json:"fullName"`
	ContactPerson    *string   `json:"contactPerson"`
	Email            *string   `json:"email"`
	Phone            *string   `json:"phone"`
	Address          *string   `json:"address"`
	ProductsSupplied *[]string `json:"productsSupplied"`
}

// pageResult is the pagination envelope shared by vendor and inventory
// listings.
type pageResult struct {
	Docs       interface{} `json:"docs"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int64       `json:"totalPages"`
}

func newPageResult(docs interface{}, total int64, page, limit int) pageResult {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pageResult{Docs: docs, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// Create adds a vendor.  Email is optional but must be unique when set.
func (h *VendorHandler) Create(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	var req createVendorReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpx.BadRequest("Vendor full name is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Email != "" {
		taken, err := h.Vendors.EmailTaken(ctx, req.Email, "")
		if err != nil {
			return httpx.Internal("Failed to create vendor")
		}
		if taken {
			return httpx.Conflict("Vendor with this email already exists")
		}
	}

	v := model.Vendor{
		ID:               uuid.NewString(),
		FullName:         strings.TrimSpace(req.FullName),
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		ProductsSupplied: req.ProductsSupplied,
	}
	if err := h.Vendors.Create(ctx, &v); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httpx.Conflict("Vendor with this email already exists")
		}
		return httpx.Internal("Failed to create vendor")
	}

	h.record(ctx, model.ActionCreateVendor, v.ID,
		fmt.Sprintf("Vendor %q created", v.FullName), actor.ID)

	return httpx.Respond(c, http.StatusCreated, "Vendor created successfully", v)
}

// List returns a paginated, name-searchable vendor listing.
func (h *VendorHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 1, 10)
	search := c.QueryParam("search")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	vendors, total, err := h.Vendors.List(ctx, search, page, limit)
	if err != nil {
		return httpx.Internal("Failed to fetch vendors")
	}
	if vendors == nil {
		vendors = []model.Vendor{}
	}
	return httpx.Respond(c, http.StatusOK, "Vendors fetched successfully",
		newPageResult(vendors, total, page, limit))
}

// GetByID returns one vendor.
func (h *VendorHandler) GetByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Vendors.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("Vendor not found")
		}
		return httpx.Internal("Failed to fetch vendor")
	}
	return httpx.Respond(c, http.StatusOK, "Vendor fetched successfully", v)
}

// Update patches the provided fields, guarding email uniqueness.
func (h *VendorHandler) Update(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	var req updateVendorReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Vendors.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("Vendor not found")
		}
		return httpx.Internal("Failed to update vendor")
	}

	if req.Email != nil && *req.Email != v.Email {
		taken, err := h.Vendors.EmailTaken(ctx, *req.Email, v.ID)
		if err != nil {
			return httpx.Internal("Failed to update vendor")
		}
		if taken {
			return httpx.Conflict("Email already in use by another vendor")
		}
		v.Email = *req.Email
	}
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return httpx.BadRequest("Vendor full name is required")
		}
		v.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.ContactPerson != nil {
		v.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		v.Phone = *req.Phone
	}
	if req.Address != nil {
		v.Address = *req.Address
	}
	if req.ProductsSupplied != nil {
		v.ProductsSupplied = *req.ProductsSupplied
	}

	if err := h.Vendors.Update(ctx, &v); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httpx.Conflict("Email already in use by another vendor")
		}
		return httpx.Internal("Failed to update vendor")
	}

	h.record(ctx, model.ActionUpdateVendor, v.ID,
		fmt.Sprintf("Vendor %q updated", v.FullName), actor.ID)

	return httpx.Respond(c, http.StatusOK, "Vendor updated successfully", v)
}

// Delete removes a vendor unless inventory items still reference it.
func (h *VendorHandler) Delete(c echo.Context) error {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Vendors.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("Vendor not found")
		}
		return httpx.Internal("Failed to delete vendor")
	}

	if err := h.Vendors.Delete(ctx, v.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrVendorInUse):
			return httpx.BadRequest("Cannot delete vendor. It is linked to inventory items.")
		case errors.Is(err, repository.ErrNotFound):
			return httpx.NotFound("Vendor not found")
		}
		return httpx.Internal("Failed to delete vendor")
	}

	h.record(ctx, model.ActionDeleteVendor, v.ID,
		fmt.Sprintf("Vendor %q deleted", v.FullName), actor.ID)

	return httpx.Respond(c, http.StatusOK, "Vendor deleted successfully", nil)
}

func (h *VendorHandler) record(ctx context.Context, action model.Action, entityID, message, performedBy string) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(ctx, audit.Event{
		Action:      action,
		EntityType:  model.EntityVendor,
		EntityID:    entityID,
		Message:     message,
		PerformedBy: performedBy,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// pageParams reads ?page and ?limit with defaults and floors at 1.
func pageParams(c echo.Context, defPage, defLimit int) (int, int) {
	page := defPage
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	limit := defLimit
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}
