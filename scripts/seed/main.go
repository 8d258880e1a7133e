package main

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/nexcartbd/nexcart/internal/app"
	"github.com/nexcartbd/nexcart/internal/catalog"
	"github.com/nexcartbd/nexcart/internal/platform/db"
)

// Seeds a development database with an admin account, a demo customer and a
// handful of products. Safe to re-run: every insert is ON CONFLICT DO NOTHING.
func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash admin password", slog.Any("error", err))
		os.Exit(1)
	}
	customerHash, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash customer password", slog.Any("error", err))
		os.Exit(1)
	}

	seedUsers := []struct {
		email, username, fullName, phone, role string
		hash                                   []byte
	}{
		{"admin@nexcart.local", "admin", "Shop Admin", "01700000000", "admin", adminHash},
		{"farhan@example.com", "farhan", "Farhan Ahmed", "01712345678", "customer", customerHash},
	}
	for _, u := range seedUsers {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (email, username, full_name, phone, role, password_hash)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (email) DO NOTHING`,
			u.email, u.username, u.fullName, u.phone, u.role, string(u.hash),
		)
		if err != nil {
			logger.Error("seed user", slog.String("email", u.email), slog.Any("error", err))
			os.Exit(1)
		}
	}

	products := []catalog.Product{
		{Code: "PNJ-001", TitleEN: "Premium Cotton Panjabi", TitleBN: "প্রিমিয়াম কটন পাঞ্জাবি",
			BuyPrice: 420, Price: 490, Stock: 50,
			Colors: []string{"White", "Navy"}, Sizes: []string{"M", "L", "XL"}},
		{Code: "SAR-001", TitleEN: "Silk Katan Saree", TitleBN: "সিল্ক কাতান শাড়ি",
			BuyPrice: 1800, Price: 2070, Stock: 20,
			Colors: []string{"Red", "Green"}},
		{Code: "TSH-001", TitleEN: "Graphic T-Shirt",
			BuyPrice: 220, Price: 260, Stock: 120,
			Sizes: []string{"S", "M", "L", "XL"}},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (code, title_en, title_bn, slug, buy_price, price, stock, colors, sizes, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'active')
			ON CONFLICT (code) DO NOTHING`,
			p.Code, p.TitleEN, p.TitleBN, catalog.Slugify(p.TitleEN),
			p.BuyPrice, p.Price, p.Stock, p.Colors, p.Sizes,
		)
		if err != nil {
			logger.Error("seed product", slog.String("code", p.Code), slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("seed complete",
		slog.Int("users", len(seedUsers)), slog.Int("products", len(products)))
}
