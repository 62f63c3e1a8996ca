package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"opticart/internal/db"
	"opticart/internal/model"
	"opticart/internal/repository"
)

//go:embed products.json
var defaultCatalogue []byte

// seedProduct is one catalogue entry in the seed file.
type seedProduct struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	Category      string `json:"category"`
	FrameMaterial string `json:"frame_material"`
	LensMaterial  string `json:"lens_material"`
	StyleShapes   string `json:"style_shapes"`
	Color         string `json:"color"`
	StockQuantity int    `json:"stock_quantity"`
}

var seedSource string

// manage seed-products [--source file-or-url]
var seedProductsCmd = &cobra.Command{
	Use:   "seed-products",
	Short: "Create or update catalogue products from a JSON file or URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := boot()
		if err != nil {
			return err
		}
		defer e.close()
		if err := db.Migrate(e.db); err != nil {
			return err
		}

		ctx := cmd.Context()
		items, err := loadCatalogue(ctx, seedSource)
		if err != nil {
			return err
		}
		created, updated, err := seedProducts(ctx, repository.NewProductRepository(e.db), items, e.log)
		if err != nil {
			return err
		}
		e.log.Info("seed completed", "created", created, "updated", updated, "processed", len(items))
		return nil
	},
}

func init() {
	seedProductsCmd.Flags().StringVar(&seedSource, "source", "", "JSON file path or http(s) URL (defaults to the bundled catalogue)")
}

// loadCatalogue reads seed entries from source. An empty source uses the
// bundled catalogue.
func loadCatalogue(ctx context.Context, source string) ([]seedProduct, error) {
	var body []byte
	switch {
	case source == "":
		body = defaultCatalogue
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		fetched, err := fetchCatalogue(ctx, source)
		if err != nil {
			return nil, err
		}
		body = fetched
	default:
		read, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		body = read
	}

	var items []seedProduct
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return items, nil
}

func fetchCatalogue(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalogue source returned status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// seedProducts creates products that don't exist yet and refreshes the
// attributes of those that do, matching on name. Entries with a missing name
// or an unparsable price are skipped.
func seedProducts(ctx context.Context, repo repository.ProductRepository, items []seedProduct, log *slog.Logger) (created, updated int, err error) {
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		price, perr := decimal.NewFromString(item.Price)
		if name == "" || perr != nil || price.IsNegative() || item.StockQuantity < 0 {
			log.Warn("skipping invalid catalogue entry", "name", item.Name, "price", item.Price)
			continue
		}

		existing, err := repo.FindByName(ctx, name)
		if err != nil && !repository.IsNotFound(err) {
			return created, updated, fmt.Errorf("look up product %q: %w", name, err)
		}

		product := existing
		if product == nil {
			product = &model.Product{Name: name}
		}
		product.Description = item.Description
		product.Price = price
		product.Category = item.Category
		product.FrameMaterial = item.FrameMaterial
		product.LensMaterial = item.LensMaterial
		product.StyleShapes = item.StyleShapes
		product.Color = item.Color
		product.StockQuantity = item.StockQuantity

		if existing != nil {
			if err := repo.Update(ctx, product); err != nil {
				return created, updated, fmt.Errorf("update product %q: %w", name, err)
			}
			updated++
			continue
		}
		if err := repo.Create(ctx, product); err != nil {
			return created, updated, fmt.Errorf("create product %q: %w", name, err)
		}
		created++
	}
	return created, updated, nil
}
