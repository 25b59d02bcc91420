package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testInput(name, brand, price string, categories ...string) ProductInput {
	if len(categories) == 0 {
		categories = []string{"general"}
	}
	return ProductInput{
		Name:        name,
		Description: name + " description",
		Brand:       brand,
		Price:       decimal.RequireFromString(price),
		Inventory:   5,
		Categories:  categories,
	}
}

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newTestService(t *testing.T) (*Service, *MemStore, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Second}
	store := NewMemStore()
	return NewService(store, nil, WithClock(clock.now)), store, clock
}

func ids(ps []Product) []uuid.UUID {
	out := make([]uuid.UUID, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
