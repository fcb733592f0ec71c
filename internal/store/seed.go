package store

import (
	"os"

	"github.com/shopspring/decimal"

	"tillpos/backend/internal/domain"
)

type SeedUser struct {
	Username string
	Password string
	Role     string
}

// SeedUsers returns the demo manager and cashier. Passwords come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD with dev fallbacks; the
// second return value reports whether a fallback was used.
func SeedUsers() ([]SeedUser, bool) {
	usingDefaults := os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == ""
	return []SeedUser{
		{Username: "admin", Password: envOr("SEED_ADMIN_PASSWORD", "admin123"), Role: domain.RoleManager},
		{Username: "cashier", Password: envOr("SEED_CASHIER_PASSWORD", "cashier123"), Role: domain.RoleCashier},
	}, usingDefaults
}

// SeedProducts is the starter catalogue. The first ten fill the quick
// access slots in order.
func SeedProducts() []domain.Product {
	price := decimal.RequireFromString
	return []domain.Product{
		{Name: "Milk", Price: price("2.99"), Quantity: 20, Category: "Dairy", Barcode: "7890123456789", SKU: "DAIRY001", LowStockThreshold: 5},
		{Name: "Bread", Price: price("1.99"), Quantity: 15, Category: "Bakery", Barcode: "7890123456790", SKU: "BAKERY001", LowStockThreshold: 5},
		{Name: "Eggs", Price: price("3.49"), Quantity: 30, Category: "Dairy", Barcode: "7890123456791", SKU: "DAIRY002", LowStockThreshold: 5},
		{Name: "Soda", Price: price("1.49"), Quantity: 50, Category: "Beverages", Barcode: "7890123456792", SKU: "BEV001", LowStockThreshold: 5},
		{Name: "Chips", Price: price("0.99"), Quantity: 40, Category: "Snacks", Barcode: "7890123456793", SKU: "SNACK001", LowStockThreshold: 5},
		{Name: "Chocolate Bar", Price: price("1.29"), Quantity: 35, Category: "Snacks", Barcode: "7890123456794", SKU: "SNACK002", LowStockThreshold: 5},
		{Name: "Water Bottle", Price: price("0.99"), Quantity: 60, Category: "Beverages", Barcode: "7890123456795", SKU: "BEV002", LowStockThreshold: 5},
		{Name: "Coffee", Price: price("4.99"), Quantity: 25, Category: "Beverages", Barcode: "7890123456796", SKU: "BEV003", LowStockThreshold: 5},
		{Name: "Yogurt", Price: price("1.79"), Quantity: 20, Category: "Dairy", Barcode: "7890123456797", SKU: "DAIRY003", LowStockThreshold: 5},
		{Name: "Cereal", Price: price("3.99"), Quantity: 15, Category: "Breakfast", Barcode: "7890123456798", SKU: "BRKFST001", LowStockThreshold: 5},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
