package catalog

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements product lifecycle operations and the list pipeline on
// top of a Store. It holds no per-call state; every operation works on what
// the Store returns at the time of the call.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
	newID func() uuid.UUID
}

type Option func(*Service)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides product id generation.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(in ProductInput) Product {
	now := s.now()
	p := newProduct(s.newID(), in, now, now)

	s.store.Put(p)
	s.log.Debug("product created", zap.Stringer("id", p.ID))
	return p.clone()
}

func (s *Service) GetByID(id uuid.UUID) (Product, bool) {
	return s.store.Get(id)
}

// Update replaces every mutable field of the product at id, keeping its id
// and createdAt. It reports false, and writes nothing, when id is absent,
// including when the product is deleted between the read and the write.
func (s *Service) Update(id uuid.UUID, in ProductInput) (Product, bool) {
	existing, ok := s.store.Get(id)
	if !ok {
		s.log.Debug("update of absent product", zap.Stringer("id", id))
		return Product{}, false
	}

	updatedAt := s.now()
	if updatedAt.Before(existing.UpdatedAt) {
		updatedAt = existing.UpdatedAt
	}
	updated := newProduct(existing.ID, in, existing.CreatedAt, updatedAt)

	if !s.store.ReplaceIfPresent(updated) {
		s.log.Debug("product deleted during update", zap.Stringer("id", id))
		return Product{}, false
	}

	s.log.Debug("product updated", zap.Stringer("id", id))
	return updated.clone(), true
}

func (s *Service) Delete(id uuid.UUID) bool {
	if !s.store.RemoveIfPresent(id) {
		s.log.Debug("delete of absent product", zap.Stringer("id", id))
		return false
	}

	s.log.Debug("product deleted", zap.Stringer("id", id))
	return true
}

// List runs filter, sort and paginate over a snapshot of the store.
func (s *Service) List(q ListQuery) []Product {
	matched := filterProducts(s.store.GetAll(), q.Filter)
	sortProducts(matched, q.Sort)
	return paginate(matched, q.Page, q.Size)
}
