package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

//go:embed products.yaml
var defaultCatalog []byte

type catalogFile struct {
	Products []productEntry `yaml:"products"`
}

type productEntry struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       string  `yaml:"price"`
	Image       *string `yaml:"image"`
}

type Repository interface {
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
}

// Default returns the catalog bundled with the binary.
func Default() ([]domain.Product, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

func LoadFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) ([]domain.Product, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}

	products := make([]domain.Product, 0, len(file.Products))
	for i, entry := range file.Products {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("seed entry %d: name is required", i)
		}
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("seed entry %q: invalid price %q: %w", entry.Name, entry.Price, err)
		}
		products = append(products, domain.Product{
			Name:        strings.TrimSpace(entry.Name),
			Description: entry.Description,
			Price:       price,
			Image:       entry.Image,
		})
	}
	return products, nil
}

// Apply inserts every product whose name is not in the catalog yet and
// returns how many were created.
func Apply(ctx context.Context, repo Repository, products []domain.Product, logger *zap.Logger) (int, error) {
	created := 0
	for i := range products {
		p := products[i]

		_, err := repo.FindByName(ctx, p.Name)
		if err == nil {
			logger.Info("seed product exists, skipping", zap.String("name", p.Name))
			continue
		}
		if _, ok := errors.IsNotFoundError(err); !ok {
			return created, err
		}

		if err := repo.Create(ctx, &p); err != nil {
			return created, err
		}
		created++
		logger.Info("seed product created", zap.Uint("productId", p.ID), zap.String("name", p.Name))
	}
	return created, nil
}
