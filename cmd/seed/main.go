package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/export"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/ikkim/storefront/pkg/util"
)

// seed loads a cart workbook (as produced by GET /api/v1/cart/export) into a
// session cart in the configured storage backend.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> [session_id]")
	}
	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "warn", Format: cfg.Log.Format})

	sessionID := util.NewSessionID()
	if len(os.Args) > 2 {
		sessionID = os.Args[2]
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	lines, err := export.ReadCartLines(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Total lines to import: %d\n", len(lines))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	kv, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open cart storage:", err)
	}
	defer closeStorage()

	sessions := service.NewCartSessions(kv, cfg.Cart.KeyPrefix, service.ParseTaxRate(cfg.Cart.TaxRate), nil)
	store := sessions.Get(ctx, sessionID)
	imported := importLines(ctx, store, lines)
	totals := store.ComputeTotals()

	fmt.Println("Import completed successfully!")
	fmt.Printf("Session: %s (key %s)\n", sessionID, store.Key())
	fmt.Printf("Lines imported: %d, cart now holds %d lines, grand total %s\n",
		imported, len(store.Lines()), totals.GrandTotal.StringFixed(2))

	token, err := util.IssueGuestToken(sessionID, cfg.Session.Secret, cfg.Session.Expiry)
	if err != nil {
		log.Fatal("Failed to issue session token:", err)
	}
	fmt.Printf("Session token: %s\n", token)
}

// importLines adds every line to store, merging with existing lines by
// product id. Lines with a non-positive quantity are skipped.
func importLines(ctx context.Context, store *service.CartStore, lines []model.CartLine) int {
	imported := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		product := model.Product{
			ID:       line.ProductID,
			Title:    line.Title,
			Price:    line.Price,
			Image:    line.Image,
			Category: line.Category,
		}
		store.AddItem(ctx, product, line.Quantity)
		imported++
	}
	return imported
}
