package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions is the allowed-transition table. Orders move forward
// through the sequence; cancelled is terminal and reachable from any
// non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Payment methods accepted at checkout.
const (
	PaymentCard       = "card"
	PaymentUPI        = "upi"
	PaymentNetbanking = "netbanking"
	PaymentCOD        = "cod"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCard, PaymentUPI, PaymentNetbanking, PaymentCOD:
		return true
	}
	return false
}

// Address is a postal address, used both for user profiles and order
// shipping addresses.
type Address struct {
	Street  string `json:"street" db:"street"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	ZipCode string `json:"zip_code" db:"zip_code"`
	Country string `json:"country" db:"country"`
}

// PaymentResult is the opaque record returned by the payment collaborator.
type PaymentResult struct {
	ID         string     `json:"id" db:"payment_id"`
	Status     string     `json:"status" db:"payment_status"`
	UpdateTime *time.Time `json:"update_time,omitempty" db:"payment_update_time"`
}

// OrderItem is one line of an order. Name, Price and Image are snapshots
// captured at placement time and are never recomputed from the live
// product, so historical orders survive catalog changes and deletions.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Size      string    `json:"size,omitempty" db:"size"`
	Color     string    `json:"color,omitempty" db:"color"`
	Price     float64   `json:"price" db:"price"`
	Image     string    `json:"image,omitempty" db:"image"`
}

// Order represents a placed order. Price fields are snapshots supplied at
// creation; TotalPrice must equal ItemsPrice + TaxPrice + ShippingPrice.
type Order struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	UserID          uuid.UUID     `json:"user_id" db:"user_id"`
	Items           []OrderItem   `json:"order_items" db:"-"`
	ShippingAddress Address       `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method" db:"payment_method"`
	ItemsPrice      float64       `json:"items_price" db:"items_price"`
	TaxPrice        float64       `json:"tax_price" db:"tax_price"`
	ShippingPrice   float64       `json:"shipping_price" db:"shipping_price"`
	TotalPrice      float64       `json:"total_price" db:"total_price"`
	IsPaid          bool          `json:"is_paid" db:"is_paid"`
	PaidAt          *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	PaymentResult   PaymentResult `json:"payment_result"`
	OrderStatus     OrderStatus   `json:"order_status" db:"order_status"`
	IsDelivered     bool          `json:"is_delivered" db:"is_delivered"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`

	// Owner display fields, populated by joins for admin and detail views.
	UserName  string `json:"user_name,omitempty" db:"-"`
	UserEmail string `json:"user_email,omitempty" db:"-"`
}

// InsufficientStockError reports an order line that asked for more units
// than the product currently holds.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
