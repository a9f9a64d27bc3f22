// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/supplement-store-backend/internal/config"
	"github.com/your-org/supplement-store-backend/internal/domain/cart"
	"github.com/your-org/supplement-store-backend/internal/domain/checkout"
	"github.com/your-org/supplement-store-backend/internal/domain/coupon"
	"github.com/your-org/supplement-store-backend/internal/domain/membership"
	"github.com/your-org/supplement-store-backend/internal/domain/order"
	"github.com/your-org/supplement-store-backend/internal/domain/product"
	"github.com/your-org/supplement-store-backend/internal/domain/user"
	redisdb "github.com/your-org/supplement-store-backend/internal/infrastructure/database/redis"
	"github.com/your-org/supplement-store-backend/internal/interfaces/http/handlers"
	"github.com/your-org/supplement-store-backend/internal/interfaces/http/middleware"
	"github.com/your-org/supplement-store-backend/internal/pkg/translation"
	"gorm.io/gorm"
)

// SetupRoutes wires all services and registers every API route
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, cache *redisdb.Client, cfg *config.Config, log *logrus.Logger) {
	// Services
	translations := translation.NewCache(cache.GetClient(), cfg.Translation.CacheTTL, cfg.Translation.Enabled, log)
	productService := product.NewService(db, cfg, translations)
	membershipService := membership.NewService(db, cfg)
	pricer := membership.NewPricer(membershipService, cfg.Pricing.DefaultMemberDiscountPercent, log)
	couponStore := coupon.NewGormStore(db)
	couponService := coupon.NewService(couponStore, log)
	cartService := cart.NewService(db, cache, cfg, log)
	checkoutService := checkout.NewService(cartService, productService, pricer, couponService, cfg, log)
	orderService := order.NewService(db, checkoutService, couponService, cartService, cfg, log)
	userService := user.NewService(db, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, cartService, log)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	couponHandler := handlers.NewCouponHandler(couponStore)
	membershipHandler := handlers.NewMembershipHandler(membershipService)

	// Auth
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// Users
	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(cfg))
	{
		users.GET("/profile", authHandler.GetProfile)
		users.PUT("/profile", authHandler.UpdateProfile)
		users.POST("/change-password", authHandler.ChangePassword)
		users.GET("/addresses", authHandler.GetAddresses)
		users.POST("/addresses", authHandler.AddAddress)
		users.DELETE("/addresses/:id", authHandler.DeleteAddress)
		users.GET("/membership", membershipHandler.GetMembership)
	}

	// Products (public, optional auth for member pricing later)
	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
	}
	rg.GET("/categories", productHandler.GetCategories)

	// Cart (guests use X-Session-ID)
	cartRoutes := rg.Group("/cart")
	cartRoutes.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.POST("/items", cartHandler.AddItem)
		cartRoutes.PUT("/items/:id", cartHandler.UpdateItem)
		cartRoutes.DELETE("/items/:id", cartHandler.RemoveItem)
		cartRoutes.DELETE("", cartHandler.ClearCart)
	}

	// Checkout
	checkoutRoutes := rg.Group("/checkout")
	checkoutRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		checkoutRoutes.POST("/summary", checkoutHandler.BuildSummary)
		checkoutRoutes.GET("/plans/:id", checkoutHandler.GetPurchasePlans)
		checkoutRoutes.POST("/coupon/validate", checkoutHandler.ValidateCoupon)
	}

	// Orders
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/confirm-payment", orderHandler.ConfirmPayment)
	}

	// Admin
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.POST("/coupons", couponHandler.CreateCoupon)
		admin.GET("/coupons", couponHandler.ListCoupons)
		admin.DELETE("/coupons/:id", couponHandler.DeactivateCoupon)
		admin.POST("/memberships/:userId", membershipHandler.GrantMembership)
		admin.DELETE("/memberships/:userId", membershipHandler.RevokeMembership)
	}
}
