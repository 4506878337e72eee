package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stylemart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access and the
// paid-order aggregates behind the admin dashboard.
type OrderRepository interface {
	// Create persists the order, its line items and the per-item stock
	// reservation in a single transaction. If any product lacks stock the
	// whole transaction rolls back and domain.InsufficientStockError (or
	// ErrProductNotFound) is returned, so a failed placement leaves no
	// order behind.
	Create(ctx context.Context, order *domain.Order) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	FindAll(ctx context.Context) ([]*domain.Order, error)
	FindRecent(ctx context.Context, limit int) ([]*domain.Order, error)

	UpdatePayment(ctx context.Context, id uuid.UUID, paidAt time.Time, result domain.PaymentResult, status domain.OrderStatus) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, delivered bool, deliveredAt *time.Time) error

	Count(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (float64, error)
	SalesByMonth(ctx context.Context, since time.Time) ([]domain.MonthlySales, error)
	SalesByCategory(ctx context.Context) ([]domain.CategorySales, error)
}

type orderRepository struct {
	db       *sql.DB
	products ProductRepository
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB, products ProductRepository) OrderRepository {
	return &orderRepository{db: db, products: products}
}

const orderColumns = `o.id, o.user_id, o.street, o.city, o.state, o.zip_code, o.country,
		o.payment_method, o.items_price, o.tax_price, o.shipping_price, o.total_price,
		o.is_paid, o.paid_at, o.payment_id, o.payment_status, o.payment_update_time,
		o.order_status, o.is_delivered, o.delivered_at, o.created_at`

func scanOrder(row interface{ Scan(...interface{}) error }, withUser bool) (*domain.Order, error) {
	order := &domain.Order{}
	dest := []interface{}{
		&order.ID,
		&order.UserID,
		&order.ShippingAddress.Street,
		&order.ShippingAddress.City,
		&order.ShippingAddress.State,
		&order.ShippingAddress.ZipCode,
		&order.ShippingAddress.Country,
		&order.PaymentMethod,
		&order.ItemsPrice,
		&order.TaxPrice,
		&order.ShippingPrice,
		&order.TotalPrice,
		&order.IsPaid,
		&order.PaidAt,
		&order.PaymentResult.ID,
		&order.PaymentResult.Status,
		&order.PaymentResult.UpdateTime,
		&order.OrderStatus,
		&order.IsDelivered,
		&order.DeliveredAt,
		&order.CreatedAt,
	}
	if withUser {
		dest = append(dest, &order.UserName, &order.UserEmail)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return order, nil
}

// Create persists the order and reserves stock atomically.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, user_id, street, city, state, zip_code, country,
		    payment_method, items_price, tax_price, shipping_price, total_price,
		    is_paid, payment_id, payment_status, order_status, is_delivered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.ShippingAddress.Street,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.ZipCode,
		order.ShippingAddress.Country,
		order.PaymentMethod,
		order.ItemsPrice,
		order.TaxPrice,
		order.ShippingPrice,
		order.TotalPrice,
		order.IsPaid,
		order.PaymentResult.ID,
		order.PaymentResult.Status,
		order.OrderStatus,
		order.IsDelivered,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	// position records the shopper's cart order; item ids are random.
	itemQuery := `
		INSERT INTO order_items (id, order_id, position, product_id, name, quantity, size, color, price, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID

		_, err = tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			i,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.Size,
			item.Color,
			item.Price,
			item.Image,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		// Conditional decrement inside the same transaction: any failure
		// rolls back the order row and every prior reservation.
		if err := r.products.ReserveStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its owner display fields and line items.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// FindByUser retrieves all orders owned by userID, most recent first.
func (r *orderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows, false)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// FindAll retrieves every order with owner display fields, most recent first.
func (r *orderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
	`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows, true)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// FindRecent retrieves the most recently created orders with owner display
// fields. Line items are not loaded; the dashboard does not show them.
func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1
	`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows, true)
}

// UpdatePayment records the payment result, marks the order paid and sets
// the given status.
func (r *orderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paidAt time.Time, result domain.PaymentResult, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $2, payment_id = $3, payment_status = $4,
		    payment_update_time = $5, order_status = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, paidAt, result.ID, result.Status, result.UpdateTime, status)
	if err != nil {
		return fmt.Errorf("failed to update order payment: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UpdateStatus sets the order status and, for deliveries, the delivery stamp.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, delivered bool, deliveredAt *time.Time) error {
	query := `
		UPDATE orders
		SET order_status = $2, is_delivered = $3, delivered_at = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, status, delivered, deliveredAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Count returns the total number of order records
func (r *orderRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// Revenue returns the sum of total_price over paid orders, 0 if none.
func (r *orderRepository) Revenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE is_paid = TRUE`,
	).Scan(&revenue)
	if err != nil {
		return 0, fmt.Errorf("failed to compute revenue: %w", err)
	}
	return revenue, nil
}

// SalesByMonth groups paid orders created since the cutoff by (year, month),
// chronologically ascending. Months with no paid orders are absent.
func (r *orderRepository) SalesByMonth(ctx context.Context, since time.Time) ([]domain.MonthlySales, error) {
	query := `
		SELECT EXTRACT(YEAR FROM created_at)::int AS year,
		       EXTRACT(MONTH FROM created_at)::int AS month,
		       SUM(total_price), COUNT(*)
		FROM orders
		WHERE is_paid = TRUE AND created_at >= $1
		GROUP BY year, month
		ORDER BY year ASC, month ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales by month: %w", err)
	}
	defer rows.Close()

	sales := []domain.MonthlySales{}
	for rows.Next() {
		var m domain.MonthlySales
		if err := rows.Scan(&m.Year, &m.Month, &m.TotalSales, &m.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
		}
		sales = append(sales, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly sales: %w", err)
	}

	return sales, nil
}

// SalesByCategory decomposes paid orders into line items and groups
// quantity*price by the referenced product's category. The inner join drops
// line items whose product has been deleted.
func (r *orderRepository) SalesByCategory(ctx context.Context) ([]domain.CategorySales, error) {
	query := `
		SELECT p.category, SUM(oi.quantity * oi.price), SUM(oi.quantity)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.is_paid = TRUE
		GROUP BY p.category
		ORDER BY p.category ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales by category: %w", err)
	}
	defer rows.Close()

	sales := []domain.CategorySales{}
	for rows.Next() {
		var c domain.CategorySales
		if err := rows.Scan(&c.Category, &c.TotalSales, &c.ItemsSold); err != nil {
			return nil, fmt.Errorf("failed to scan category sales: %w", err)
		}
		sales = append(sales, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category sales: %w", err)
	}

	return sales, nil
}

// loadItems attaches line items to the given orders in one query.
func (r *orderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]interface{}, 0, len(orders))
	placeholders := make([]string, 0, len(orders))
	for i, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf(`
		SELECT id, order_id, product_id, name, quantity, size, color, price, image
		FROM order_items
		WHERE order_id IN (%s)
		ORDER BY order_id, position
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.Size,
			&item.Color,
			&item.Price,
			&item.Image,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func collectOrders(rows *sql.Rows, withUser bool) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows, withUser)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}
