package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/model"
)

// DashboardHandler aggregates counts and the recent-activity feed for
// the admin dashboard.
type DashboardHandler struct {
	Vendors    VendorStore
	Items      InventoryStore
	Activities ActivityStore
}

func NewDashboardHandler(vendors VendorStore, items InventoryStore, activities ActivityStore) *DashboardHandler {
	return &DashboardHandler{Vendors: vendors, Items: items, Activities: activities}
}

type dashboardResp struct {
	TotalVendors       int64            `json:"totalVendors"`
	TotalInventory     int64            `json:"totalInventory"`
	LowStockItems      int64            `json:"lowStockItems"`
	RecentActivity     []model.Activity `json:"recentActivity"`
	ActivityPage       int              `json:"activityPage"`
	ActivityTotalPages int64            `json:"activityTotalPages"`
	ActivityTotal      int64            `json:"activityTotal"`
}

// Stats serves GET /dashboard with basic counts and a paginated
// activity feed, newest first.
func (h *DashboardHandler) Stats(c echo.Context) error {
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("activityPage")); err == nil && v > 0 {
		page = v
	}
	limit := 6
	if v, err := strconv.Atoi(c.QueryParam("activityLimit")); err == nil && v > 0 {
		limit = v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	totalVendors, err := h.Vendors.CountAll(ctx)
	if err != nil {
		return httpx.Internal("Failed to fetch dashboard")
	}
	totalInventory, err := h.Items.CountAll(ctx)
	if err != nil {
		return httpx.Internal("Failed to fetch dashboard")
	}
	lowStock, err := h.Items.CountLowStock(ctx)
	if err != nil {
		return httpx.Internal("Failed to fetch dashboard")
	}
	activities, total, err := h.Activities.ListRecent(ctx, page, limit)
	if err != nil {
		return httpx.Internal("Failed to fetch dashboard")
	}
	if activities == nil {
		activities = []model.Activity{}
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	return httpx.Respond(c, http.StatusOK, "Dashboard fetched", dashboardResp{
		TotalVendors:       totalVendors,
		TotalInventory:     totalInventory,
		LowStockItems:      lowStock,
		RecentActivity:     activities,
		ActivityPage:       page,
		ActivityTotalPages: totalPages,
		ActivityTotal:      total,
	})
}
