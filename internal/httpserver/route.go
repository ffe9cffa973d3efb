package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	Auth    *AuthHTTP
	Catalog *CatalogHTTP
	Cart    *CartHTTP
	Order   *OrderHTTP
	Comment *CommentHTTP
	Profile *ProfileHTTP

	JWTSecret []byte
	// Ready reports whether the store is reachable. Nil means always ready.
	Ready   func(ctx context.Context) error
	Metrics *metrics.Metrics
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	session := authmw.Session(d.JWTSecret)
	admin := authmw.RequireAdmin()

	users := e.Group("/api/users")
	users.POST("/register", d.Auth.Register)
	users.POST("/login", d.Auth.Login)
	users.POST("/google", d.Auth.GoogleLogin)
	users.GET("/verify", d.Auth.Verify)
	users.POST("/forgot-password", d.Auth.ForgotPassword)
	users.POST("/reset-password", d.Auth.ResetPassword)

	products := e.Group("/api/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)

	adminProducts := products.Group("", session, admin)
	adminProducts.POST("", d.Catalog.CreateProduct)
	adminProducts.PATCH("/:id", d.Catalog.PatchProduct)
	adminProducts.DELETE("/:id", d.Catalog.DeleteProduct)
	adminProducts.POST("/:id/image", d.Catalog.UploadImage)

	carts := e.Group("/api/carts", session)
	carts.GET("", d.Cart.GetCart)
	carts.POST("", d.Cart.AddItem)
	carts.DELETE("", d.Cart.ClearCart)
	carts.PUT("/:id", d.Cart.UpdateItem)
	carts.DELETE("/:id", d.Cart.RemoveItem)
	carts.POST("/checkout", d.Order.CheckoutCart)

	orders := e.Group("/api/orders", session)
	orders.POST("", d.Order.PlaceOrder)
	orders.GET("", d.Order.ListOrders)
	orders.GET("/:id", d.Order.GetOrder)

	comments := e.Group("/api/comments")
	comments.GET("/product/:id", d.Comment.GetComments)
	comments.GET("/product/:id/stats", d.Comment.GetStats)
	comments.POST("/product/:id", d.Comment.AddComment, session)
	comments.DELETE("/:id", d.Comment.DeleteComment, session)

	profiles := e.Group("/api/profiles")
	profiles.GET("", d.Profile.GetOwn, session)
	profiles.PUT("", d.Profile.Update, session)
	profiles.POST("/images/:kind", d.Profile.UploadImage, session)
	profiles.GET("/:userId", d.Profile.GetByUser)
}
