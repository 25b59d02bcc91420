package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

type seedProduct struct {
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Brand       string   `koanf:"brand"`
	Price       string   `koanf:"price"`
	Inventory   int      `koanf:"inventory"`
	Categories  []string `koanf:"categories"`
}

// LoadSeed reads a YAML file with a top level "products" list and returns
// validated inputs ready for Service.Create. Prices should be quoted so they
// are read as exact decimals.
func LoadSeed(path string, v *Validator) ([]ProductInput, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}

	var raw []seedProduct
	if err := k.Unmarshal("products", &raw); err != nil {
		return nil, fmt.Errorf("decode seed products: %w", err)
	}

	inputs := make([]ProductInput, 0, len(raw))
	for i, sp := range raw {
		price, err := decimal.NewFromString(strings.TrimSpace(sp.Price))
		if err != nil {
			return nil, fmt.Errorf("seed product %d: price %q: %w", i, sp.Price, err)
		}

		in := ProductInput{
			Name:        sp.Name,
			Description: sp.Description,
			Brand:       sp.Brand,
			Price:       price,
			Inventory:   sp.Inventory,
			Categories:  sp.Categories,
		}
		if fields := v.Product(in); fields != nil {
			return nil, fmt.Errorf("seed product %d: invalid fields: %s", i, describeFields(fields))
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Seed creates one product per input, in order.
func (s *Service) Seed(inputs []ProductInput) []Product {
	out := make([]Product, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, s.Create(in))
	}
	return out
}

func describeFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for f, rule := range fields {
		parts = append(parts, f+"="+rule)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
