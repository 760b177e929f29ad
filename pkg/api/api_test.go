package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/pkg/logger"
	"storefront/pkg/order"
	ordermem "storefront/pkg/order/memory"
	"storefront/pkg/product"
	productmem "storefront/pkg/product/memory"
	"storefront/pkg/session"
	"storefront/pkg/user"
	usermem "storefront/pkg/user/memory"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

type testServer struct {
	handler http.Handler
	orders  *order.Manager
	users   *user.Service
}

func newTestServer(t *testing.T, policy order.Policy) *testServer {
	t.Helper()

	orders := order.NewManager(ordermem.New(), order.WithPolicy(policy))
	users := user.NewService(usermem.New(), user.BcryptManager{Cost: bcrypt.MinCost}, orders)
	catalog := product.NewCatalog(productmem.New(product.Product{
		ID:    "p1",
		Name:  "Rose Oud",
		Price: decimal.RequireFromString("49.99"),
		Type:  "eau de parfum",
	}))

	_, err := users.EnsureAdmin(context.Background(), user.Registration{Name: "Admin User", Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)

	h := NewRouter(Config{
		Log:        logger.New(io.Discard, logger.LevelError, "test", nil),
		Orders:     orders,
		Catalog:    catalog,
		Users:      users,
		Sessions:   session.NewMemoryStore(time.Hour),
		SessionTTL: time.Hour,
	})
	return &testServer{handler: h, orders: orders, users: users}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) (*http.Cookie, user.User) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c, resp.User
		}
	}
	t.Fatal("no session cookie set")
	return nil, user.User{}
}

func (s *testServer) signupAndLogin(t *testing.T, name, email string) (*http.Cookie, user.User) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/signup", user.Registration{Name: name, Email: email, Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return s.login(t, email, "password123")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleOrder(userID string) order.NewOrder {
	return order.NewOrder{
		UserID: userID,
		Items:  []order.LineItem{{ProductID: "p1", Quantity: 2}},
		Total:  decimal.RequireFromString("99.98"),
		ShippingAddress: &order.ShippingAddress{
			FullName:   "Sample Customer",
			Address:    "1 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62701",
			Country:    "US",
		},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSignup(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())

	rec := s.do(t, http.MethodPost, "/auth/signup", user.Registration{Name: "Sample Customer", Email: "c@example.com", Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[map[string]map[string]any](t, rec)
	assert.Equal(t, "c@example.com", resp["user"]["email"])
	assert.Equal(t, "customer", resp["user"]["role"])
	assert.NotContains(t, resp["user"], "password")
	assert.NotContains(t, resp["user"], "passwordHash")

	rec = s.do(t, http.MethodPost, "/auth/signup", user.Registration{Name: "Other", Email: "C@example.com", Password: "x"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/signup", user.Registration{Email: "d@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupOverlongPassword(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())

	rec := s.do(t, http.MethodPost, "/auth/signup", user.Registration{Name: "Long", Email: "long@example.com", Password: strings.Repeat("a", 73)}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password must be at most 72 bytes")

	rec = s.do(t, http.MethodPost, "/auth/login", loginRequest{Email: adminEmail, Password: strings.Repeat("a", 73)}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())

	cookie, u := s.login(t, adminEmail, adminPassword)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.True(t, cookie.HttpOnly)

	rec := s.do(t, http.MethodPost, "/auth/login", loginRequest{Email: adminEmail, Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", loginRequest{Email: "nobody@example.com", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", loginRequest{Email: adminEmail}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password is required")
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	cookie, u := s.signupAndLogin(t, "Sample Customer", "c@example.com")

	rec := s.do(t, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[userResponse](t, rec)
	assert.Equal(t, u.ID, me.User.ID)

	rec = s.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())

	rec := s.do(t, http.MethodGet, "/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]product.Product](t, rec)
	require.Len(t, list, 1)
	assert.True(t, list[0].Price.Equal(decimal.RequireFromString("49.99")))
	assert.Contains(t, rec.Body.String(), `"price":49.99`)

	rec = s.do(t, http.MethodGet, "/products/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	newProduct := product.Product{Name: "Amber Night", Price: decimal.NewFromInt(30)}
	rec = s.do(t, http.MethodPost, "/products", newProduct, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	customer, _ := s.signupAndLogin(t, "Sample Customer", "c@example.com")
	rec = s.do(t, http.MethodPost, "/products", newProduct, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, _ := s.login(t, adminEmail, adminPassword)
	rec = s.do(t, http.MethodPost, "/products", newProduct, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[product.Product](t, rec)
	assert.NotEmpty(t, created.ID)

	name := "Amber Night Intense"
	rec = s.do(t, http.MethodPut, "/products/"+created.ID, product.Patch{Name: &name}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, name, decodeBody[product.Product](t, rec).Name)

	rec = s.do(t, http.MethodDelete, "/products/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/products/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	customer, u := s.signupAndLogin(t, "Sample Customer", "c@example.com")
	admin, _ := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/orders", sampleOrder(u.ID), customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[order.Order](t, rec)
	assert.Equal(t, order.StatusPending, created.Status)
	require.Len(t, created.StatusHistory, 1)
	assert.Equal(t, order.PlacedNote, created.StatusHistory[0].Note)
	assert.Contains(t, rec.Body.String(), `"total":99.98`)

	rec = s.do(t, http.MethodGet, "/auth/me", nil, customer)
	assert.Equal(t, []string{created.ID}, decodeBody[userResponse](t, rec).User.Orders)

	rec = s.do(t, http.MethodPatch, "/orders/"+created.ID, transitionRequest{Status: "processing", Note: "Payment confirmed"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPatch, "/orders/"+created.ID, transitionRequest{Status: "Packing"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[order.Order](t, rec)
	assert.Equal(t, order.StatusPacking, got.Status)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, order.StatusProcessing, got.StatusHistory[1].Status)
	assert.Equal(t, "Payment confirmed", got.StatusHistory[1].Note)
	assert.Equal(t, order.StatusPacking, got.StatusHistory[2].Status)

	rec = s.do(t, http.MethodGet, "/orders/"+created.ID, nil, customer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[order.Order](t, rec).StatusHistory, 3)

	rec = s.do(t, http.MethodPatch, "/orders/"+created.ID, transitionRequest{}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "status is required")

	rec = s.do(t, http.MethodPatch, "/orders/"+created.ID, transitionRequest{Status: "lost"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/orders/missing", transitionRequest{Status: "delivered"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/orders/"+created.ID, transitionRequest{Status: "delivered"}, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/orders/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/auth/me", nil, customer)
	assert.Empty(t, decodeBody[userResponse](t, rec).User.Orders)
}

func TestStrictPolicyRejectsSkips(t *testing.T) {
	s := newTestServer(t, order.StrictPolicy())
	customer, u := s.signupAndLogin(t, "Sample Customer", "c@example.com")
	admin, _ := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/orders", sampleOrder(u.ID), customer)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[order.Order](t, rec).ID

	rec = s.do(t, http.MethodPatch, "/orders/"+id, transitionRequest{Status: "delivered"}, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, "/orders/"+id, transitionRequest{Status: "cancelled"}, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderVisibility(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	alice, aliceUser := s.signupAndLogin(t, "Alice", "alice@example.com")
	bob, bobUser := s.signupAndLogin(t, "Bob", "bob@example.com")
	admin, _ := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/orders", sampleOrder(aliceUser.ID), alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	aliceOrder := decodeBody[order.Order](t, rec)

	rec = s.do(t, http.MethodPost, "/orders", sampleOrder(aliceUser.ID), bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/orders", sampleOrder(""), bob)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, bobUser.ID, decodeBody[order.Order](t, rec).UserID)

	rec = s.do(t, http.MethodGet, "/orders/"+aliceOrder.ID, nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders?userId="+aliceUser.ID, nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	bobs := decodeBody[[]order.Order](t, rec)
	require.Len(t, bobs, 1)
	assert.Equal(t, bobUser.ID, bobs[0].UserID)

	rec = s.do(t, http.MethodGet, "/orders", nil, admin)
	assert.Len(t, decodeBody[[]order.Order](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/orders?userId="+aliceUser.ID, nil, admin)
	filtered := decodeBody[[]order.Order](t, rec)
	require.Len(t, filtered, 1)
	assert.Equal(t, aliceOrder.ID, filtered[0].ID)

	rec = s.do(t, http.MethodGet, "/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateOrderKeepsHistory(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	customer, u := s.signupAndLogin(t, "Sample Customer", "c@example.com")
	admin, _ := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/orders", sampleOrder(u.ID), customer)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[order.Order](t, rec).ID

	patch := order.Patch{TrackingInfo: &order.TrackingInfo{Number: "1Z999", URL: "https://track.example.com/1Z999"}}
	rec = s.do(t, http.MethodPut, "/orders/"+id, patch, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[order.Order](t, rec)
	require.NotNil(t, got.TrackingInfo)
	assert.Equal(t, "1Z999", got.TrackingInfo.Number)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Len(t, got.StatusHistory, 1)

	rec = s.do(t, http.MethodPut, "/orders/"+id, patch, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	customer, u := s.signupAndLogin(t, "Sample Customer", "c@example.com")

	bad := sampleOrder(u.ID)
	bad.Items = nil
	rec := s.do(t, http.MethodPost, "/orders", bad, customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "items")

	subCent := sampleOrder(u.ID)
	subCent.Total = decimal.RequireFromString("300.555")
	rec = s.do(t, http.MethodPost, "/orders", subCent, customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "total must have at most 2 decimal places")

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
	req.AddCookie(customer)
	raw := httptest.NewRecorder()
	s.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	customer, u := s.signupAndLogin(t, "Sample Customer", "c@example.com")
	admin, _ := s.login(t, adminEmail, adminPassword)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/orders", sampleOrder(u.ID), customer)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	orders, err := s.orders.List(context.Background(), u.ID)
	require.NoError(t, err)
	_, err = s.orders.Transition(context.Background(), orders[0].ID, order.StatusCancelled, "")
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/admin/summary", nil, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/summary", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[order.Summary](t, rec)
	assert.Equal(t, 2, sum.TotalOrders)
	assert.Equal(t, 1, sum.ActiveOrders)
	assert.Equal(t, 1, sum.ByStatus[order.StatusCancelled])
	assert.Equal(t, 0, sum.ByStatus[order.StatusDelivered])
	assert.True(t, sum.Revenue.Equal(decimal.RequireFromString("99.98")))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, order.PermissivePolicy())
	rec := s.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}
