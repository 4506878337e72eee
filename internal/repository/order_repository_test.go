package repository

import (
	"context"
	"testing"
	"time"

	"stylemart/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := newTestUser(email)
	require.NoError(t, NewUserRepository(testDB).Create(context.Background(), user))
	return user
}

func seedCatalogProduct(t *testing.T, name, category string, price float64, stock int) *domain.Product {
	t.Helper()
	product := newTestProduct(name, category, price, stock)
	require.NoError(t, NewProductRepository(testDB).Create(context.Background(), product))
	return product
}

func newTestOrder(user *domain.User, product *domain.Product, quantity int) *domain.Order {
	itemsPrice := product.Price * float64(quantity)
	return &domain.Order{
		ID:     uuid.New(),
		UserID: user.ID,
		Items: []domain.OrderItem{{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  quantity,
			Size:      "M",
			Price:     product.Price,
		}},
		ShippingAddress: domain.Address{
			Street: "1 Main St", City: "Springfield", State: "IL",
			ZipCode: "62701", Country: "US",
		},
		PaymentMethod: domain.PaymentCard,
		ItemsPrice:    itemsPrice,
		TotalPrice:    itemsPrice,
		OrderStatus:   domain.StatusPending,
		CreatedAt:     time.Now(),
	}
}

func TestOrderRepository_CreateReservesStock(t *testing.T) {
	truncateAll(t)
	productRepo := NewProductRepository(testDB)
	repo := NewOrderRepository(testDB, productRepo)
	ctx := context.Background()

	user := seedUser(t, "buyer@example.com")
	product := seedCatalogProduct(t, "Corduroy Pants", "men", 48.00, 5)

	// Two sequential orders of 3 units against 5 in stock: the first
	// succeeds, the second must fail without touching anything.
	first := newTestOrder(user, product, 3)
	require.NoError(t, repo.Create(ctx, first))

	second := newTestOrder(user, product, 3)
	err := repo.Create(ctx, second)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	// The failed order left no rows behind
	_, err = repo.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 3, got.Sold)
}

func TestOrderRepository_MultiItemRollback(t *testing.T) {
	truncateAll(t)
	productRepo := NewProductRepository(testDB)
	repo := NewOrderRepository(testDB, productRepo)
	ctx := context.Background()

	user := seedUser(t, "buyer@example.com")
	plenty := seedCatalogProduct(t, "Cotton Socks", "men", 6.00, 100)
	scarce := seedCatalogProduct(t, "Limited Sneakers", "men", 150.00, 1)

	order := newTestOrder(user, plenty, 10)
	order.Items = append(order.Items, domain.OrderItem{
		ProductID: scarce.ID,
		Name:      scarce.Name,
		Quantity:  2,
		Price:     scarce.Price,
	})

	err := repo.Create(ctx, order)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// The successful first reservation was rolled back with the order
	got, err := productRepo.FindByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Stock)
	assert.Equal(t, 0, got.Sold)
}

func TestOrderRepository_FindByIDLoadsItemsAndOwner(t *testing.T) {
	truncateAll(t)
	repo := NewOrderRepository(testDB, NewProductRepository(testDB))
	ctx := context.Background()

	user := seedUser(t, "reader@example.com")
	product := seedCatalogProduct(t, "Wool Beanie", "accessories", 14.00, 20)

	order := newTestOrder(user, product, 2)
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, got.UserName)
	assert.Equal(t, user.Email, got.UserEmail)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Wool Beanie", got.Items[0].Name)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 14.00, got.Items[0].Price)
}

func TestOrderRepository_ItemsReadBackInPlacementOrder(t *testing.T) {
	truncateAll(t)
	repo := NewOrderRepository(testDB, NewProductRepository(testDB))
	ctx := context.Background()

	user := seedUser(t, "cart@example.com")
	first := seedCatalogProduct(t, "Striped Tee", "men", 18.00, 10)
	second := seedCatalogProduct(t, "Denim Shorts", "men", 32.00, 10)
	third := seedCatalogProduct(t, "Canvas Belt", "accessories", 12.00, 10)

	// Line item ids are random, so only the position column keeps the
	// cart order stable across reads.
	order := newTestOrder(user, first, 1)
	order.Items = append(order.Items,
		domain.OrderItem{ProductID: second.ID, Name: second.Name, Quantity: 2, Price: second.Price},
		domain.OrderItem{ProductID: third.ID, Name: third.Name, Quantity: 1, Price: third.Price},
	)
	require.NoError(t, repo.Create(ctx, order))

	want := []string{"Striped Tee", "Denim Shorts", "Canvas Belt"}

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	for i, name := range want {
		assert.Equal(t, name, got.Items[i].Name)
	}

	byUser, err := repo.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	require.Len(t, byUser[0].Items, 3)
	for i, name := range want {
		assert.Equal(t, name, byUser[0].Items[i].Name)
	}
}

func TestOrderRepository_ItemSnapshotsSurviveProductDeletion(t *testing.T) {
	truncateAll(t)
	productRepo := NewProductRepository(testDB)
	repo := NewOrderRepository(testDB, productRepo)
	ctx := context.Background()

	user := seedUser(t, "keeper@example.com")
	product := seedCatalogProduct(t, "Discontinued Shirt", "men", 22.00, 10)

	order := newTestOrder(user, product, 1)
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, productRepo.Delete(ctx, product.ID))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Discontinued Shirt", got.Items[0].Name)
	assert.Equal(t, 22.00, got.Items[0].Price)
}

func TestOrderRepository_UpdatePaymentAndStatus(t *testing.T) {
	truncateAll(t)
	repo := NewOrderRepository(testDB, NewProductRepository(testDB))
	ctx := context.Background()

	user := seedUser(t, "payer@example.com")
	product := seedCatalogProduct(t, "Rain Boots", "women", 35.00, 10)

	order := newTestOrder(user, product, 1)
	require.NoError(t, repo.Create(ctx, order))

	paidAt := time.Now()
	updateTime := paidAt
	result := domain.PaymentResult{ID: "pay_42", Status: "completed", UpdateTime: &updateTime}
	require.NoError(t, repo.UpdatePayment(ctx, order.ID, paidAt, result, domain.StatusConfirmed))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, "pay_42", got.PaymentResult.ID)
	assert.Equal(t, domain.StatusConfirmed, got.OrderStatus)

	deliveredAt := time.Now()
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.StatusDelivered, true, &deliveredAt))

	got, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.OrderStatus)
	assert.True(t, got.IsDelivered)
	require.NotNil(t, got.DeliveredAt)

	// Unknown orders surface as not found
	assert.ErrorIs(t, repo.UpdatePayment(ctx, uuid.New(), paidAt, result, domain.StatusConfirmed), ErrOrderNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.StatusShipped, false, nil), ErrOrderNotFound)
}

func TestOrderRepository_Aggregates(t *testing.T) {
	truncateAll(t)
	repo := NewOrderRepository(testDB, NewProductRepository(testDB))
	ctx := context.Background()

	user := seedUser(t, "stats@example.com")
	menswear := seedCatalogProduct(t, "Flannel Shirt", "men", 100.00, 50)
	homeware := seedCatalogProduct(t, "Throw Blanket", "home", 200.00, 50)

	paidAt := time.Now()
	result := domain.PaymentResult{ID: "pay_agg", Status: "completed"}

	placePaid := func(product *domain.Product, quantity int) {
		order := newTestOrder(user, product, quantity)
		require.NoError(t, repo.Create(ctx, order))
		require.NoError(t, repo.UpdatePayment(ctx, order.ID, paidAt, result, domain.StatusConfirmed))
	}

	placePaid(menswear, 1) // 100
	placePaid(menswear, 2) // 200
	placePaid(homeware, 1) // 200

	// One unpaid order that must not count towards revenue
	unpaid := newTestOrder(user, homeware, 1)
	require.NoError(t, repo.Create(ctx, unpaid))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	revenue, err := repo.Revenue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, revenue, 0.001)

	recent, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, user.Name, recent[0].UserName)

	since := time.Now().AddDate(0, -12, 0)
	monthly, err := repo.SalesByMonth(ctx, since)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, int(paidAt.Month()), monthly[0].Month)
	assert.Equal(t, 3, monthly[0].OrderCount)
	assert.InDelta(t, 500.0, monthly[0].TotalSales, 0.001)

	byCategory, err := repo.SalesByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, byCategory, 2)

	totals := map[string]float64{}
	items := map[string]int{}
	for _, c := range byCategory {
		totals[c.Category] = c.TotalSales
		items[c.Category] = c.ItemsSold
	}
	assert.InDelta(t, 300.0, totals["men"], 0.001)
	assert.Equal(t, 3, items["men"])
	assert.InDelta(t, 200.0, totals["home"], 0.001)
	assert.Equal(t, 1, items["home"])
}

func TestOrderRepository_FindByUser(t *testing.T) {
	truncateAll(t)
	repo := NewOrderRepository(testDB, NewProductRepository(testDB))
	ctx := context.Background()

	alice := seedUser(t, "alice@example.com")
	bob := seedUser(t, "bob@example.com")
	product := seedCatalogProduct(t, "Gray Hoodie", "men", 55.00, 30)

	require.NoError(t, repo.Create(ctx, newTestOrder(alice, product, 1)))
	require.NoError(t, repo.Create(ctx, newTestOrder(alice, product, 2)))
	require.NoError(t, repo.Create(ctx, newTestOrder(bob, product, 1)))

	orders, err := repo.FindByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, order := range orders {
		assert.Equal(t, alice.ID, order.UserID)
		assert.NotEmpty(t, order.Items)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
