// Package routes mounts the API under /api/v1.
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopkart_back_end/internal/handlers"
	"shopkart_back_end/internal/middleware"
	"shopkart_back_end/internal/models"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Users      *handlers.UserHandler
	Profile    *handlers.ProfileHandler
	Addresses  *handlers.AddressHandler
	Categories *handlers.CategoryHandler
	Products   *handlers.ProductHandler
	Cart       *handlers.CartHandler
	Coupons    *handlers.CouponHandler
	Orders     *handlers.OrderHandler
}

type Middleware struct {
	Auth         *middleware.Authenticator
	LoginLimiter middleware.AttemptLimiter
	Audit        middleware.AuditSink
	Logger       *zap.Logger
}

func Register(r *gin.Engine, h Handlers, mw Middleware) {
	api := r.Group("/api/v1")
	api.GET("/healthcheck", h.Health.Check)

	verify := mw.Auth.VerifyJWT()
	admin := middleware.RequireRoles(models.RoleAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(mw.Audit, mw.Logger, action, resource)
	}

	users := api.Group("/users")
	{
		users.POST("/register", h.Users.Register)
		users.POST("/login", middleware.LoginRateLimit(mw.LoginLimiter), h.Users.Login)
		users.POST("/refresh-token", h.Users.RefreshToken)
		users.GET("/verify-email/:verificationToken", h.Users.VerifyEmail)
		users.POST("/forgot-password", h.Users.ForgotPassword)
		users.POST("/reset-password/:resetToken", h.Users.ResetPassword)
		users.GET("/google", h.Users.GoogleBegin)
		users.GET("/google/callback", h.Users.GoogleCallback)
		users.POST("/google/token", h.Users.GoogleToken)

		secured := users.Group("", verify)
		secured.POST("/logout", h.Users.Logout)
		secured.GET("/current-user", h.Users.CurrentUser)
		secured.PATCH("/avatar", h.Users.UpdateAvatar)
		secured.POST("/resend-verify-email", h.Users.ResendVerification)
		secured.POST("/change-password", h.Users.ChangePassword)
		secured.POST("/assign-role/:userId", admin, audit("assign_role", "user"), h.Users.AssignRole)
	}

	profile := api.Group("/profile", verify)
	{
		profile.GET("", h.Profile.Get)
		profile.PATCH("", h.Profile.Update)
		profile.GET("/my-orders", h.Profile.MyOrders)
	}

	addresses := api.Group("/addresses", verify)
	{
		addresses.POST("", h.Addresses.Create)
		addresses.GET("", h.Addresses.List)
		addresses.GET("/:addressId", h.Addresses.Get)
		addresses.PATCH("/:addressId", h.Addresses.Update)
		addresses.DELETE("/:addressId", h.Addresses.Delete)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.Categories.List)
		categories.GET("/:categoryId", h.Categories.Get)

		managed := categories.Group("", verify, admin, audit("manage_category", "category"))
		managed.POST("", h.Categories.Create)
		managed.PATCH("/:categoryId", h.Categories.Update)
		managed.DELETE("/:categoryId", h.Categories.Delete)
	}

	products := api.Group("/products")
	{
		products.GET("", h.Products.List)
		products.GET("/search", h.Products.Search)
		products.GET("/category/:categoryId", h.Products.ListByCategory)
		products.GET("/:productId", h.Products.Get)

		managed := products.Group("", verify, admin, audit("manage_product", "product"))
		managed.POST("", h.Products.Create)
		managed.PATCH("/:productId", h.Products.Update)
		managed.DELETE("/:productId", h.Products.Delete)
		managed.PATCH("/remove/sub-image/:productId/:subImageId", h.Products.RemoveSubImage)
	}

	cart := api.Group("/cart", verify)
	{
		cart.GET("", h.Cart.Get)
		cart.POST("/item/:productId", h.Cart.AddOrUpdateItem)
		cart.DELETE("/item/:productId", h.Cart.RemoveItem)
		cart.DELETE("/clear", h.Cart.Clear)
	}

	coupons := api.Group("/coupons", verify)
	{
		coupons.POST("/c/apply", h.Coupons.Apply)
		coupons.POST("/c/remove", h.Coupons.Remove)
		coupons.GET("/customer/available-coupons", h.Coupons.AvailableForCustomer)

		managed := coupons.Group("", admin, audit("manage_coupon", "coupon"))
		managed.POST("", h.Coupons.Create)
		managed.GET("", h.Coupons.List)
		managed.GET("/:couponId", h.Coupons.Get)
		managed.PATCH("/:couponId", h.Coupons.Update)
		managed.DELETE("/:couponId", h.Coupons.Delete)
		managed.PATCH("/status/:couponId", h.Coupons.SetStatus)
	}

	orders := api.Group("/orders")
	{
		orders.POST("/provider/stripe/webhook", h.Orders.StripeWebhook)

		secured := orders.Group("", verify)
		secured.POST("/provider/razorpay", h.Orders.RazorpayOrder)
		secured.POST("/provider/razorpay/verify-payment", audit("verify_payment", "order"), h.Orders.VerifyRazorpayPayment)
		secured.POST("/provider/stripe", h.Orders.StripeOrder)
		secured.GET("/list/admin", admin, h.Orders.ListAdmin)
		secured.GET("/:orderId", h.Orders.Get)
		secured.GET("/:orderId/invoice", h.Orders.Invoice)
	}
}
