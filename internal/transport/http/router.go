package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/handlers"
	"github.com/quickbite/marketplace/internal/handlers/cart"
	"github.com/quickbite/marketplace/internal/handlers/orders"
	"github.com/quickbite/marketplace/internal/models"
	"github.com/quickbite/marketplace/internal/service"
)

type Deps struct {
	DB                 *gorm.DB
	AuthHandler        *handlers.AuthHandler
	MarketplaceHandler *handlers.MarketplaceHandler
	SearchHandler      *handlers.SearchHandler
	VendorHandler      *handlers.VendorHandler
	AdminHandler       *handlers.AdminHandler
	CartHandler        *cart.CartHandler
	OrderHandler       *orders.OrderHandler
	TokenService       *service.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/register-vendor", d.AuthHandler.RegisterVendor)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/marketplace", d.MarketplaceHandler.ListVendors)
	v1.GET("/marketplace/:slug", d.MarketplaceHandler.VendorDetail)
	v1.GET("/search", d.SearchHandler.Search)

	customer := d.TokenService.RequireRole(models.RoleCustomer)

	cartGroup := v1.Group("/cart", customer)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.GET("/amounts", d.CartHandler.GetAmounts)
	cartGroup.POST("/add/:item_id", d.CartHandler.AddToCart)
	cartGroup.POST("/decrease/:item_id", d.CartHandler.DecreaseCart)
	cartGroup.DELETE("/:id", d.CartHandler.DeleteCartItem)

	v1.GET("/checkout", d.OrderHandler.Checkout, customer)

	ordersGroup := v1.Group("/orders", customer)
	ordersGroup.POST("/place", d.OrderHandler.PlaceOrder)
	ordersGroup.POST("/payments", d.OrderHandler.Payments)
	ordersGroup.GET("/complete", d.OrderHandler.OrderComplete)

	customerGroup := v1.Group("/customer", customer)
	customerGroup.GET("/orders", d.OrderHandler.MyOrders)
	customerGroup.GET("/orders/:number", d.OrderHandler.OrderDetail)

	vendorGroup := v1.Group("/vendor", d.TokenService.RequireRole(models.RoleVendor))
	vendorGroup.GET("/profile", d.VendorHandler.Profile)
	vendorGroup.POST("/profile", d.VendorHandler.UpdateProfile)
	vendorGroup.GET("/categories", d.VendorHandler.ListCategories)
	vendorGroup.POST("/categories", d.VendorHandler.AddCategory)
	vendorGroup.PATCH("/categories/:id", d.VendorHandler.UpdateCategory)
	vendorGroup.DELETE("/categories/:id", d.VendorHandler.DeleteCategory)
	vendorGroup.GET("/categories/:id/items", d.VendorHandler.ItemsByCategory)
	vendorGroup.POST("/items", d.VendorHandler.AddFoodItem)
	vendorGroup.PATCH("/items/:id", d.VendorHandler.UpdateFoodItem)
	vendorGroup.DELETE("/items/:id", d.VendorHandler.DeleteFoodItem)
	vendorGroup.GET("/opening-hours", d.VendorHandler.ListOpeningHours)
	vendorGroup.POST("/opening-hours", d.VendorHandler.AddOpeningHour)
	vendorGroup.DELETE("/opening-hours/:id", d.VendorHandler.RemoveOpeningHour)
	vendorGroup.GET("/orders", d.VendorHandler.Orders)
	vendorGroup.GET("/orders/:number", d.VendorHandler.OrderDetail)
	vendorGroup.GET("/dashboard", d.VendorHandler.Dashboard)

	adminGroup := v1.Group("/admin", d.TokenService.RequireRole(models.RoleAdmin))
	adminGroup.GET("/tax-rules", d.AdminHandler.ListTaxRules)
	adminGroup.POST("/tax-rules", d.AdminHandler.CreateTaxRule)
	adminGroup.PATCH("/tax-rules/:id", d.AdminHandler.UpdateTaxRule)
	adminGroup.DELETE("/tax-rules/:id", d.AdminHandler.DeleteTaxRule)
	adminGroup.PATCH("/vendors/:id/approve", d.AdminHandler.ApproveVendor)
}
