package httpserver

import (
	"context"
	"errors"
	"time"

	"farmisian/internal/chat"
	"farmisian/internal/domain"
	cartsvc "farmisian/internal/service/cart"
	"farmisian/internal/service/checkout"
	customersvc "farmisian/internal/service/customer"
	ordersvc "farmisian/internal/service/order"
	productsvc "farmisian/internal/service/product"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type productService interface {
	List(ctx context.Context, f productsvc.Filter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	Logout(ctx context.Context, token string) error
	StatusFor(ctx context.Context, token string) (customersvc.Status, error)
	AccessTTLSeconds() int
}

type cartService interface {
	View(ctx context.Context, sessionID string) cartsvc.View
	Add(ctx context.Context, sessionID, productID string, quantity int) (cartsvc.View, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) cartsvc.View
	Remove(ctx context.Context, sessionID, productID string) cartsvc.View
	Clear(ctx context.Context, sessionID string) cartsvc.View
	SetDrawer(ctx context.Context, sessionID, action string) (cartsvc.View, error)
}

type checkoutService interface {
	Quote(ctx context.Context, sessionID string) checkout.Quote
	Place(ctx context.Context, sessionID string, customer domain.Customer, addr domain.ShippingAddress) (*domain.Order, error)
}

type orderService interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, userID, id string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Stats(ctx context.Context) (ordersvc.Stats, error)
}

type chatService interface {
	Open(ctx context.Context, sessionID string, user *domain.Customer) chat.Snapshot
	Send(ctx context.Context, sessionID, text string, user *domain.Customer) (chat.Snapshot, bool)
	QuickReply(ctx context.Context, sessionID, action string, user *domain.Customer) (chat.Snapshot, bool)
	Reset(sessionID string)
}

// Deps groups the services the router dispatches to.
type Deps struct {
	ProductSvc  productService
	CategorySvc categoryService
	CustomerSvc customerService
	CartSvc     cartService
	CheckoutSvc checkoutService
	OrderSvc    orderService
	ChatSvc     chatService

	// Probes are pinged by /readyz, keyed by store name.
	Probes      map[string]Probe
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service is required")
	case d.CategorySvc == nil:
		return errors.New("category service is required")
	case d.CustomerSvc == nil:
		return errors.New("customer service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.CheckoutSvc == nil:
		return errors.New("checkout service is required")
	case d.OrderSvc == nil:
		return errors.New("order service is required")
	case d.ChatSvc == nil:
		return errors.New("chat service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", sessionHeader},
			ExposeHeaders:    []string{sessionHeader, requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Probes))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api", sessionMiddleware(), authMiddleware(deps.CustomerSvc))

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)

	auth := api.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.GET("/me", h.me)

	cartGroup := api.Group("/cart")
	cartGroup.GET("", h.getCart)
	cartGroup.DELETE("", h.clearCart)
	cartGroup.POST("/items", h.addCartItem)
	cartGroup.PATCH("/items/:productId", h.updateCartItem)
	cartGroup.DELETE("/items/:productId", h.removeCartItem)
	cartGroup.POST("/open", h.setDrawer(cartsvc.DrawerOpen))
	cartGroup.POST("/close", h.setDrawer(cartsvc.DrawerClose))
	cartGroup.POST("/toggle", h.setDrawer(cartsvc.DrawerToggle))

	api.GET("/checkout/quote", h.quote)
	api.POST("/checkout", requireUser(), h.placeOrder)

	orders := api.Group("/orders", requireUser())
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)

	chatGroup := api.Group("/chat")
	chatGroup.GET("", h.openChat)
	chatGroup.DELETE("", h.resetChat)
	chatGroup.POST("/messages", h.sendChat)
	chatGroup.POST("/quick-replies/:action", h.quickReply)

	admin := api.Group("/admin", requireUser(), requireAdmin())
	admin.GET("/stats", h.stats)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.GET("/orders", h.listAllOrders)
	admin.PATCH("/orders/:id/status", h.updateOrderStatus)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
