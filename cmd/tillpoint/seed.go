package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/di/providers"
	"github.com/tillpoint/tillpoint-server/internal/domain"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// seedData is a small dataset written the way the front end stored it
// before short codes: legacy product names and no hierarchy fields.
type seedData struct {
	Products []domain.Product
	Orders   []domain.Order
	Cart     []domain.CartItem
	Clients  []domain.Client
}

func newSeedData() seedData {
	paid := func(v float64) *float64 { return &v }

	alice := domain.Client{ID: domain.Text(uuid.NewString()), Name: "Alice Moreau", Phone: "555-0101"}
	bruno := domain.Client{ID: domain.Text(uuid.NewString()), Name: "Bruno Silva", Email: "bruno@example.com"}

	return seedData{
		Products: []domain.Product{
			{ID: domain.Number(1), Name: "Tina", Stock: 40, Price: 30},
			{ID: domain.Number(2), Name: "Earl Grey", Type: "Classic", Stock: 12, Price: 9},
			{ID: domain.Number(3), Name: "Rooibos", Stock: 25, Price: 8},
			{ID: domain.Number(4), Name: "Beeswax Candle", Type: "Small", Stock: 6, Price: 6},
			{ID: domain.Number(5), Name: "Viagra", Type: "Blue (100mg)", Stock: 30, Price: 12},
		},
		Orders: []domain.Order{
			{
				ID:         domain.Number(1001),
				ClientID:   alice.ID,
				ClientName: alice.Name,
				Items: []domain.OrderItem{
					{ProductID: domain.Number(1), ProductName: "Tina", Size: domain.Text("1g"), Quantity: 2, Price: 60},
					{ProductID: domain.Number(3), ProductName: "Rooibos", Size: domain.Text("100g"), Quantity: 1, Price: 14},
				},
				Total:      74,
				Status:     domain.OrderStatusCompleted,
				Date:       "2024-03-02",
				AmountPaid: paid(74),
			},
			{
				ID:         domain.Number(1002),
				ClientID:   bruno.ID,
				ClientName: bruno.Name,
				Items: []domain.OrderItem{
					{ProductID: domain.Number(2), ProductName: "Earl Grey", Type: "Classic", Size: domain.Text("100g"), Quantity: 1, Price: 16},
				},
				Total:      16,
				Status:     domain.OrderStatusUnpaid,
				Date:       "2024-03-05",
				AmountPaid: paid(5),
			},
		},
		Cart: []domain.CartItem{
			{ProductID: domain.Number(4), ProductName: "Beeswax Candle", Product: "Beeswax Candle", Type: "Small", Size: domain.Text("3 units"), Quantity: 1, Price: 15},
			{ProductID: domain.Number(5), ProductName: "Viagra", Product: "Viagra", Type: "Blue (100mg)", Size: domain.Text("4 pills"), Quantity: 1, Price: 40},
		},
		Clients: []domain.Client{alice, bruno},
	}
}

// runSeed overwrites the four collections with the sample dataset and clears
// both migration versions so the migrations run again.
func runSeed(ctx context.Context, e *env) error {
	kv := do.MustInvoke[*providers.StoreHandle](e.injector)
	log := do.MustInvoke[*logger.Logger](e.injector)

	data := newSeedData()
	collections := map[string]any{
		store.KeyProducts: data.Products,
		store.KeyOrders:   data.Orders,
		store.KeyCart:     data.Cart,
		store.KeyClients:  data.Clients,
	}
	for _, key := range store.Collections() {
		encoded, err := json.Marshal(collections[key])
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if err := kv.Set(ctx, key, string(encoded)); err != nil {
			return err
		}
	}

	for _, key := range []string{store.KeyProductNameVersion, store.KeyHierarchyVersion} {
		if err := kv.Remove(ctx, key); err != nil {
			return err
		}
	}

	log.Info("Seeded store",
		"products", len(data.Products),
		"orders", len(data.Orders),
		"cart", len(data.Cart),
		"clients", len(data.Clients))

	return e.print(map[string]int{
		"products": len(data.Products),
		"orders":   len(data.Orders),
		"cart":     len(data.Cart),
		"clients":  len(data.Clients),
	})
}
