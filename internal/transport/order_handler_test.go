package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stylemart/internal/domain"
	"stylemart/internal/middleware"
	"stylemart/internal/repository"
	"stylemart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockOrderService returns canned results so handler tests can focus on
// status code mapping.
type mockOrderService struct {
	order  *domain.Order
	orders []*domain.Order
	err    error
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, input service.PlaceOrderInput) (*domain.Order, error) {
	return m.order, m.err
}

func (m *mockOrderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*domain.Order, error) {
	return m.order, m.err
}

func (m *mockOrderService) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *mockOrderService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *mockOrderService) MarkPaid(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string, result domain.PaymentResult) (*domain.Order, error) {
	return m.order, m.err
}

func (m *mockOrderService) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error) {
	return m.order, m.err
}

func authenticatedRequest(method, target string, body []byte, userID uuid.UUID, role string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
	return req.WithContext(ctx)
}

func validPlaceOrderBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(PlaceOrderRequest{
		Items: []OrderItemRequest{{
			ProductID: uuid.New().String(),
			Name:      "Denim Jacket",
			Quantity:  1,
			Price:     59.99,
		}},
		ShippingAddress: AddressRequest{
			Street: "1 Main St", City: "Springfield", State: "IL",
			ZipCode: "62701", Country: "US",
		},
		PaymentMethod: domain.PaymentCard,
		ItemsPrice:    59.99,
		TotalPrice:    59.99,
	})
	require.NoError(t, err)
	return body
}

func TestPlaceOrderStatusMapping(t *testing.T) {
	logger := zap.NewNop()
	userID := uuid.New()

	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"empty items", service.ErrNoOrderItems, http.StatusBadRequest},
		{"bad payment method", service.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{"price mismatch", service.ErrPriceMismatch, http.StatusBadRequest},
		{"unknown product", &service.ProductNotFoundError{Name: "Ghost Item"}, http.StatusNotFound},
		{"insufficient stock", &domain.InsufficientStockError{ProductName: "Denim Jacket", Requested: 3, Available: 1}, http.StatusConflict},
		{"store timeout", service.ErrStoreTimeout, http.StatusGatewayTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{err: tc.serviceErr}
			if tc.serviceErr == nil {
				svc.order = &domain.Order{ID: uuid.New(), UserID: userID, OrderStatus: domain.StatusPending}
			}
			handler := NewOrderHandler(svc, logger)

			req := authenticatedRequest(http.MethodPost, "/api/orders", validPlaceOrderBody(t), userID, domain.RoleUser)
			rec := httptest.NewRecorder()
			handler.PlaceOrder(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestPlaceOrderInsufficientStockDetails(t *testing.T) {
	svc := &mockOrderService{err: &domain.InsufficientStockError{
		ProductName: "Denim Jacket", Requested: 3, Available: 1,
	}}
	handler := NewOrderHandler(svc, zap.NewNop())

	req := authenticatedRequest(http.MethodPost, "/api/orders", validPlaceOrderBody(t), uuid.New(), domain.RoleUser)
	rec := httptest.NewRecorder()
	handler.PlaceOrder(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var response middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Denim Jacket", response.Error.Details["product"])
	assert.EqualValues(t, 3, response.Error.Details["requested"])
	assert.EqualValues(t, 1, response.Error.Details["available"])
}

func TestPlaceOrderRequiresAuthContext(t *testing.T) {
	handler := NewOrderHandler(&mockOrderService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(validPlaceOrderBody(t)))
	rec := httptest.NewRecorder()
	handler.PlaceOrder(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrderRejectsMalformedBody(t *testing.T) {
	handler := NewOrderHandler(&mockOrderService{}, zap.NewNop())

	req := authenticatedRequest(http.MethodPost, "/api/orders", []byte(`{not json`), uuid.New(), domain.RoleUser)
	rec := httptest.NewRecorder()
	handler.PlaceOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderStatusMapping(t *testing.T) {
	logger := zap.NewNop()
	orderID := uuid.New()

	newGetRequest := func(id string) (*httptest.ResponseRecorder, *http.Request) {
		req := authenticatedRequest(http.MethodGet, "/api/orders/"+id, nil, uuid.New(), domain.RoleUser)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		return httptest.NewRecorder(), req
	}

	t.Run("owner reads order", func(t *testing.T) {
		svc := &mockOrderService{order: &domain.Order{ID: orderID, OrderStatus: domain.StatusPending}}
		handler := NewOrderHandler(svc, logger)
		rec, req := newGetRequest(orderID.String())
		handler.GetOrder(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		handler := NewOrderHandler(&mockOrderService{err: service.ErrNotAuthorized}, logger)
		rec, req := newGetRequest(orderID.String())
		handler.GetOrder(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		handler := NewOrderHandler(&mockOrderService{err: repository.ErrOrderNotFound}, logger)
		rec, req := newGetRequest(orderID.String())
		handler.GetOrder(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		handler := NewOrderHandler(&mockOrderService{}, logger)
		rec, req := newGetRequest("not-a-uuid")
		handler.GetOrder(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPayOrder(t *testing.T) {
	logger := zap.NewNop()
	orderID := uuid.New()

	body, err := json.Marshal(PayOrderRequest{ID: "pay_123", Status: "completed"})
	require.NoError(t, err)

	newPayRequest := func() (*httptest.ResponseRecorder, *http.Request) {
		req := authenticatedRequest(http.MethodPut, "/api/orders/"+orderID.String()+"/pay", body, uuid.New(), domain.RoleUser)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID.String())
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		return httptest.NewRecorder(), req
	}

	t.Run("marks order paid", func(t *testing.T) {
		svc := &mockOrderService{order: &domain.Order{
			ID: orderID, IsPaid: true, OrderStatus: domain.StatusConfirmed,
		}}
		handler := NewOrderHandler(svc, logger)

		rec, req := newPayRequest()
		handler.PayOrder(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.IsPaid)
		assert.Equal(t, domain.StatusConfirmed, got.OrderStatus)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		handler := NewOrderHandler(&mockOrderService{err: service.ErrNotAuthorized}, logger)
		rec, req := newPayRequest()
		handler.PayOrder(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMyOrders(t *testing.T) {
	userID := uuid.New()
	svc := &mockOrderService{orders: []*domain.Order{
		{ID: uuid.New(), UserID: userID},
		{ID: uuid.New(), UserID: userID},
	}}
	handler := NewOrderHandler(svc, zap.NewNop())

	req := authenticatedRequest(http.MethodGet, "/api/orders/myorders", nil, userID, domain.RoleUser)
	rec := httptest.NewRecorder()
	handler.MyOrders(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []*domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
