package transport

import (
	"net/http"
	"time"

	"stylemart/internal/domain"
	"stylemart/internal/middleware"
	"stylemart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderItemRequest is one line of the order placement payload. Name, price
// and image are the cart snapshots.
type OrderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Name      string  `json:"name" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Price     float64 `json:"price" validate:"gte=0"`
	Image     string  `json:"image"`
}

// PlaceOrderRequest represents the order placement payload
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"order_items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
	ItemsPrice      float64            `json:"items_price" validate:"gte=0"`
	TaxPrice        float64            `json:"tax_price" validate:"gte=0"`
	ShippingPrice   float64            `json:"shipping_price" validate:"gte=0"`
	TotalPrice      float64            `json:"total_price" validate:"gte=0"`
}

// PayOrderRequest represents the payment confirmation payload
type PayOrderRequest struct {
	ID         string     `json:"id" validate:"required"`
	Status     string     `json:"status" validate:"required"`
	UpdateTime *time.Time `json:"update_time"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes. Every route requires an
// authenticated user; placement is additionally rate limited.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(rateLimiter).Post("/", h.PlaceOrder)
		r.Get("/myorders", h.MyOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/pay", h.PayOrder)
	})
}

// PlaceOrder handles order placement
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requesterFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.PlaceOrderInput{
		ShippingAddress: domain.Address{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}

	input.Items = make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
			return
		}
		input.Items = append(input.Items, service.OrderItemInput{
			ProductID: productID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			Price:     item.Price,
			Image:     item.Image,
		})
	}

	order, err := h.orderService.PlaceOrder(r.Context(), userID, input)
	if err != nil {
		h.logger.Info("Order placement rejected",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		respondWithServiceError(w, err)
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalPrice),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// MyOrders lists the authenticated user's orders
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requesterFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListOrdersForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		respondWithServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns a single order for its owner or an administrator
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID, userID, role)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// PayOrder records a payment result against the order
func (h *OrderHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req PayOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := domain.PaymentResult{
		ID:         req.ID,
		Status:     req.Status,
		UpdateTime: req.UpdateTime,
	}

	order, err := h.orderService.MarkPaid(r.Context(), orderID, userID, role, result)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.logger.Info("Order paid",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", result.ID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
