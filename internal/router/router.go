// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/mehdiyara/stockroom/internal/config"
	"github.com/mehdiyara/stockroom/internal/handler"
	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/middleware"
	"github.com/mehdiyara/stockroom/internal/model"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Cfg       config.Config
	Users     middleware.UserStore
	Auth      *handler.AuthHandler
	Admin     *handler.UserAdminHandler
	Vendors   *handler.VendorHandler
	Inventory *handler.InventoryHandler
	Dashboard *handler.DashboardHandler
	Redis     *redis.Client
}

// Register installs the error handler, validator and all routes.
//
// Route map:
//   /healthz                         public
//   /api/v1/auth/register|login|refresh   public (rate limited)
//   /api/v1/auth/...                 access token required
//   /api/v1/vendors, /api/v1/inventories  access token required (any role)
//   /api/v1/users, /api/v1/dashboard      access token + admin role
func Register(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = httpx.ErrorHandler
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())

	e.GET("/healthz", handler.Health)

	gate := middleware.Authenticate(d.Cfg.AccessSecret, d.Users)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)

	// Credential endpoints: no session required, brute-force limited.
	pub := e.Group("/api/v1/auth")
	pub.POST("/register", d.Auth.Register, limiter)
	pub.POST("/login", d.Auth.Login, limiter)
	pub.POST("/refresh", d.Auth.Refresh)

	// Session endpoints behind the gate.
	auth := e.Group("/api/v1/auth", gate)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/currentUser", d.Auth.CurrentUser)
	auth.POST("/changeUserPassword", d.Auth.ChangePassword)
	auth.PATCH("/updateAvatar", d.Auth.UpdateAvatar)

	// Admin user management.
	users := e.Group("/api/v1/users", gate, adminOnly)
	users.GET("/all", d.Admin.ListUsers)
	users.PUT("/:id/role", d.Admin.UpdateRole)
	users.DELETE("/:id", d.Admin.DeleteUser)

	// Vendor and inventory CRUD for any authenticated role.
	vendors := e.Group("/api/v1/vendors", gate)
	vendors.POST("", d.Vendors.Create)
	vendors.GET("", d.Vendors.List)
	vendors.GET("/:id", d.Vendors.GetByID)
	vendors.PUT("/:id", d.Vendors.Update)
	vendors.DELETE("/:id", d.Vendors.Delete)

	inventories := e.Group("/api/v1/inventories", gate)
	inventories.POST("", d.Inventory.Create)
	inventories.GET("", d.Inventory.List)
	inventories.GET("/:id", d.Inventory.GetByID)
	inventories.PUT("/:id", d.Inventory.Update)
	inventories.DELETE("/:id", d.Inventory.Delete)

	// Dashboard is admin-only.
	e.GET("/api/v1/dashboard", d.Dashboard.Stats, gate, adminOnly)
}
