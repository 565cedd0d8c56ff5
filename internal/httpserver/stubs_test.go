package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"farmisian/internal/chat"
	"farmisian/internal/domain"
	cartsvc "farmisian/internal/service/cart"
	"farmisian/internal/service/checkout"
	customersvc "farmisian/internal/service/customer"
	ordersvc "farmisian/internal/service/order"
	productsvc "farmisian/internal/service/product"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubProductService struct {
	products   []domain.Product
	product    *domain.Product
	err        error
	lastFilter productsvc.Filter
	created    *domain.Product
}

func (s *stubProductService) List(_ context.Context, f productsvc.Filter) ([]domain.Product, error) {
	s.lastFilter = f
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, _ string) (*domain.Product, error) {
	if s.product == nil && s.err == nil {
		return nil, domain.ErrNotFound
	}
	return s.product, s.err
}

func (s *stubProductService) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p.ID = "new-id"
	s.created = &p
	return &p, nil
}

func (s *stubProductService) Update(_ context.Context, id string, p domain.Product) (*domain.Product, error) {
	p.ID = id
	return &p, s.err
}

func (s *stubProductService) Delete(_ context.Context, _ string) error {
	return s.err
}

type stubCategoryService struct {
	categories []domain.Category
}

func (s *stubCategoryService) List(_ context.Context) ([]domain.Category, error) {
	return s.categories, nil
}

// stubCustomerService treats "customer-token" and "admin-token" as valid.
type stubCustomerService struct {
	loginErr  error
	signErr   error
	loggedOut string
}

var (
	testCustomer = &domain.Customer{ID: "cust-1", Email: "asha@example.com", Name: "Asha", Role: domain.RoleCustomer}
	testAdmin    = &domain.Customer{ID: "admin-1", Email: "admin@example.com", Name: "Admin", Role: domain.RoleAdmin}
)

func (s *stubCustomerService) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Customer{ID: "cust-2", Email: in.Email, Name: in.Name, Role: domain.RoleCustomer}, nil
}

func (s *stubCustomerService) Login(_ context.Context, email, _ string) (*domain.Customer, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return &domain.Customer{ID: "cust-2", Email: email, Role: domain.RoleCustomer}, "fresh-token", nil
}

func (s *stubCustomerService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubCustomerService) StatusFor(_ context.Context, token string) (customersvc.Status, error) {
	switch token {
	case "customer-token":
		return customersvc.Status{IsAuthenticated: true, User: testCustomer}, nil
	case "admin-token":
		return customersvc.Status{IsAuthenticated: true, User: testAdmin}, nil
	}
	return customersvc.Status{}, nil
}

func (s *stubCustomerService) AccessTTLSeconds() int {
	return 3600
}

type stubCartService struct {
	addErr    error
	sessions  []string
	lastQty   int
	drawerArg string
}

func (s *stubCartService) View(_ context.Context, sid string) cartsvc.View {
	s.sessions = append(s.sessions, sid)
	return cartsvc.View{}
}

func (s *stubCartService) Add(_ context.Context, sid, _ string, quantity int) (cartsvc.View, error) {
	s.sessions = append(s.sessions, sid)
	s.lastQty = quantity
	if s.addErr != nil {
		return cartsvc.View{}, s.addErr
	}
	return cartsvc.View{TotalItems: quantity, TotalPrice: decimal.NewFromInt(int64(quantity) * 100)}, nil
}

func (s *stubCartService) UpdateQuantity(_ context.Context, _ string, _ string, quantity int) cartsvc.View {
	s.lastQty = quantity
	return cartsvc.View{TotalItems: quantity}
}

func (s *stubCartService) Remove(_ context.Context, _ string, _ string) cartsvc.View {
	return cartsvc.View{}
}

func (s *stubCartService) Clear(_ context.Context, _ string) cartsvc.View {
	return cartsvc.View{}
}

func (s *stubCartService) SetDrawer(_ context.Context, _ string, action string) (cartsvc.View, error) {
	s.drawerArg = action
	return cartsvc.View{IsOpen: action == cartsvc.DrawerOpen}, nil
}

type stubCheckoutService struct {
	err      error
	customer domain.Customer
	addr     domain.ShippingAddress
}

func (s *stubCheckoutService) Quote(_ context.Context, _ string) checkout.Quote {
	return checkout.Quote{Subtotal: decimal.NewFromInt(500), Shipping: decimal.NewFromInt(100), Tax: decimal.NewFromInt(40), Total: decimal.NewFromInt(640)}
}

func (s *stubCheckoutService) Place(_ context.Context, _ string, customer domain.Customer, addr domain.ShippingAddress) (*domain.Order, error) {
	s.customer = customer
	s.addr = addr
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: "order-1", UserID: customer.ID, Total: decimal.NewFromInt(640), Status: domain.OrderStatusProcessing}, nil
}

type stubOrderService struct {
	orders []domain.Order
	err    error
	status domain.OrderStatus
}

func (s *stubOrderService) ListForUser(_ context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, s.err
}

func (s *stubOrderService) Get(_ context.Context, userID, id string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubOrderService) ListAll(_ context.Context) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.status = status
	return &domain.Order{ID: id, Status: status}, nil
}

func (s *stubOrderService) Stats(_ context.Context) (ordersvc.Stats, error) {
	return ordersvc.Stats{TotalSales: decimal.NewFromInt(1234), TotalOrders: 3, TotalProducts: 12, TotalCustomers: 2}, s.err
}

type stubChatService struct {
	resets []string
}

func (s *stubChatService) Open(_ context.Context, _ string, _ *domain.Customer) chat.Snapshot {
	return chat.Snapshot{}
}

func (s *stubChatService) Send(_ context.Context, _ string, text string, _ *domain.Customer) (chat.Snapshot, bool) {
	if strings.TrimSpace(text) == "" {
		return chat.Snapshot{}, false
	}
	return chat.Snapshot{Messages: []chat.Message{{ID: "1", Role: chat.RoleUser, Content: chat.NewContent(chat.Text(text))}}, Composing: true}, true
}

func (s *stubChatService) QuickReply(_ context.Context, _ string, action string, _ *domain.Customer) (chat.Snapshot, bool) {
	return chat.Snapshot{Composing: true}, action == "track_order"
}

func (s *stubChatService) Reset(sessionID string) {
	s.resets = append(s.resets, sessionID)
}

type testDeps struct {
	products  *stubProductService
	customers *stubCustomerService
	carts     *stubCartService
	checkout  *stubCheckoutService
	orders    *stubOrderService
	chats     *stubChatService
}

func newTestDeps() *testDeps {
	return &testDeps{
		products:  &stubProductService{},
		customers: &stubCustomerService{},
		carts:     &stubCartService{},
		checkout:  &stubCheckoutService{},
		orders:    &stubOrderService{},
		chats:     &stubChatService{},
	}
}

func (d *testDeps) deps() Deps {
	return Deps{
		ProductSvc:  d.products,
		CategorySvc: &stubCategoryService{categories: []domain.Category{{ID: "fruits", Name: "Fruits", ProductCount: 2}}},
		CustomerSvc: d.customers,
		CartSvc:     d.carts,
		CheckoutSvc: d.checkout,
		OrderSvc:    d.orders,
		ChatSvc:     d.chats,
	}
}

func (d *testDeps) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(zap.NewNop(), d.deps())
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func do(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
