package catalog

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Inventory   int             `json:"inventory"`
	Categories  []string        `json:"categories"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductInput holds every mutable field of a product. Create and Update
// both take the complete set; there are no partial updates.
type ProductInput struct {
	Name        string          `json:"name" validate:"notblank"`
	Description string          `json:"description" validate:"notblank"`
	Brand       string          `json:"brand" validate:"notblank"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Inventory   int             `json:"inventory" validate:"min=0"`
	Categories  []string        `json:"categories" validate:"required,min=1,dive,notblank"`
}

func newProduct(id uuid.UUID, in ProductInput, createdAt, updatedAt time.Time) Product {
	return Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Brand:       in.Brand,
		Price:       in.Price,
		Inventory:   in.Inventory,
		Categories:  slices.Clone(in.Categories),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// clone detaches the categories slice so callers cannot alias store memory.
func (p Product) clone() Product {
	p.Categories = slices.Clone(p.Categories)
	return p
}
