package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"stylemart/internal/domain"
	"stylemart/internal/repository"

	"github.com/google/uuid"
)

const (
	// StoreTimeout bounds every store call so a stuck database surfaces as
	// ErrStoreTimeout instead of a hung request.
	StoreTimeout = 5 * time.Second

	// priceTolerance absorbs float rounding when checking the total. Sums
	// of currency values carry ~1e-12 of noise, so anything a cent off is
	// a real mismatch.
	priceTolerance = 1e-6
)

var (
	ErrNoOrderItems         = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("order item quantity must be at least 1")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrPriceMismatch        = errors.New("total price does not equal items price plus tax and shipping")
	ErrNotAuthorized        = errors.New("not authorized to access this order")
	ErrInvalidOrderStatus   = errors.New("unknown order status")
	ErrStoreTimeout         = errors.New("store operation timed out")
)

// ProductNotFoundError reports a line item referencing a product that does
// not exist. Name is the client-supplied display name, so the shopper sees
// the item they tried to buy even when the catalog record is gone.
type ProductNotFoundError struct {
	Name string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Name)
}

// InvalidTransitionError reports a status change the state machine forbids.
type InvalidTransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// OrderItemInput is one proposed line of an order. Name, Price and Image
// are snapshots the caller captured at add-to-cart time.
type OrderItemInput struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Size      string
	Color     string
	Price     float64
	Image     string
}

// PlaceOrderInput is a proposed order.
type PlaceOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress domain.Address
	PaymentMethod   string
	ItemsPrice      float64
	TaxPrice        float64
	ShippingPrice   float64
	TotalPrice      float64
}

// OrderService defines the order placement workflow and lifecycle operations.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*domain.Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	MarkPaid(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string, result domain.PaymentResult) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// PlaceOrder validates the proposed order, persists it and reserves stock.
// Validation is fail-fast: every line item is checked against the catalog
// before anything is written. The persist itself runs as one transaction
// with conditional per-item decrements, so two concurrent orders racing for
// the same units cannot both succeed — the loser's transaction rolls back
// and the shopper gets an insufficient-stock failure, never a half-placed
// order.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoOrderItems
	}

	if !domain.ValidPaymentMethod(input.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	// Price fields are caller-supplied snapshots and are stored verbatim,
	// but the arithmetic invariant still has to hold.
	expected := input.ItemsPrice + input.TaxPrice + input.ShippingPrice
	if math.Abs(input.TotalPrice-expected) > priceTolerance {
		return nil, ErrPriceMismatch
	}

	// Availability pre-check for every line item before any mutation.
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.findProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, &ProductNotFoundError{Name: item.Name}
			}
			return nil, err
		}

		if product.Stock < item.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			}
		}
	}

	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsPrice:      input.ItemsPrice,
		TaxPrice:        input.TaxPrice,
		ShippingPrice:   input.ShippingPrice,
		TotalPrice:      input.TotalPrice,
		OrderStatus:     domain.StatusPending,
		CreatedAt:       time.Now(),
	}

	order.Items = make([]domain.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			Price:     item.Price,
			Image:     item.Image,
		})
	}

	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	if err := s.orderRepo.Create(tctx, order); err != nil {
		return nil, mapStoreErr(err)
	}

	return order, nil
}

// GetOrder returns the order enriched with owner display fields. Only the
// owning user or an administrator may read it.
func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*domain.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return nil, ErrNotAuthorized
	}

	return order, nil
}

// ListOrdersForUser returns all orders owned by userID, most recent first.
func (s *orderService) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	orders, err := s.orderRepo.FindByUser(tctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return orders, nil
}

// ListAllOrders returns every order with owner display fields, most recent
// first. Callers are expected to gate this behind an admin check.
func (s *orderService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	orders, err := s.orderRepo.FindAll(tctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return orders, nil
}

// MarkPaid records the payment result and marks the order paid. Only the
// owning user or an administrator may confirm payment. The call is
// idempotent: an already-paid order is returned unchanged. Payment moves a
// pending order to confirmed but never regresses an order that has already
// advanced further.
func (s *orderService) MarkPaid(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string, result domain.PaymentResult) (*domain.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return nil, ErrNotAuthorized
	}

	if order.IsPaid {
		return order, nil
	}

	status := order.OrderStatus
	if status == domain.StatusPending {
		status = domain.StatusConfirmed
	}

	paidAt := time.Now()

	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	if err := s.orderRepo.UpdatePayment(tctx, orderID, paidAt, result, status); err != nil {
		return nil, mapStoreErr(err)
	}

	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = result
	order.OrderStatus = status

	return order, nil
}

// SetStatus advances the order through the fulfillment state machine.
// Transitions outside the allowed table are rejected. Reaching delivered
// also stamps is_delivered and delivered_at.
func (s *orderService) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(newStatus) {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.OrderStatus, newStatus) {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: newStatus}
	}

	delivered := order.IsDelivered
	deliveredAt := order.DeliveredAt
	if newStatus == domain.StatusDelivered {
		delivered = true
		now := time.Now()
		deliveredAt = &now
	}

	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	if err := s.orderRepo.UpdateStatus(tctx, orderID, newStatus, delivered, deliveredAt); err != nil {
		return nil, mapStoreErr(err)
	}

	order.OrderStatus = newStatus
	order.IsDelivered = delivered
	order.DeliveredAt = deliveredAt

	return order, nil
}

func (s *orderService) findOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	order, err := s.orderRepo.FindByID(tctx, orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return order, nil
}

func (s *orderService) findProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	product, err := s.productRepo.FindByID(tctx, productID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return product, nil
}

// mapStoreErr surfaces a store deadline as ErrStoreTimeout; other errors
// pass through untouched.
func mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStoreTimeout
	}
	return err
}
