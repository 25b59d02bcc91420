package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"CatalogService/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Server struct {
	Service  *Service
	Store    Store
	Validate *Validator
	Metrics  *Metrics
	Log      *zap.Logger

	// WriteLimit, when set, wraps the mutating routes.
	WriteLimit func(http.Handler) http.Handler

	DefaultPageSize int
	MaxPageSize     int
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", s.list)
		pr.Get("/{id}", s.get)

		pr.Group(func(wr chi.Router) {
			if s.WriteLimit != nil {
				wr.Use(s.WriteLimit)
			}
			wr.Post("/", s.create)
			wr.Put("/{id}", s.update)
			wr.Delete("/{id}", s.delete)
		})
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query(), s.pageSizes())
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid query parameter",
				map[string]any{"param": pe.Param, "reason": pe.Reason})
			return
		}
		kit.WriteError(w, r, http.StatusBadRequest, "invalid query", nil)
		return
	}

	products := s.Service.List(q)
	s.Metrics.listed(len(products))
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, found := s.Service.GetByID(id)
	if !found {
		writeNotFound(w, r, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	p := s.Service.Create(in)
	s.Metrics.mutation("create", true)
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	p, found := s.Service.Update(id, in)
	s.Metrics.mutation("update", found)
	if !found {
		writeNotFound(w, r, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found := s.Service.Delete(id)
	s.Metrics.mutation("delete", found)
	if !found {
		writeNotFound(w, r, id)
		return
	}
	kit.WriteNoContent(w)
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	in, err := decodeProductInput(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return ProductInput{}, false
	}

	if fields := s.Validate.Product(in); fields != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", fields)
		return ProductInput{}, false
	}
	return in, true
}

func decodeProductInput(w http.ResponseWriter, r *http.Request) (ProductInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var in ProductInput
	if err := dec.Decode(&in); err != nil {
		return ProductInput{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ProductInput{}, errors.New("extra data after json object")
	}
	return in, nil
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return uuid.Nil, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id.String()})
}

type paramError struct {
	Param  string
	Reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("query parameter %s: %s", e.Param, e.Reason)
}

type pageSizes struct {
	def, max int
}

func (s *Server) pageSizes() pageSizes {
	ps := pageSizes{def: s.DefaultPageSize, max: s.MaxPageSize}
	if ps.def <= 0 {
		ps.def = DefaultPageSize
	}
	if ps.max <= 0 {
		ps.max = MaxPageSize
	}
	return ps
}

func parseListQuery(v url.Values, sizes pageSizes) (ListQuery, error) {
	q := ListQuery{
		Filter: Filter{
			Brand:    v.Get("brand"),
			Category: v.Get("category"),
		},
		Sort: ParseSortKey(v.Get("sort")),
		Size: sizes.def,
	}

	var err error
	if q.Filter.PriceMin, err = parseDecimalParam(v, "priceMin"); err != nil {
		return ListQuery{}, err
	}
	if q.Filter.PriceMax, err = parseDecimalParam(v, "priceMax"); err != nil {
		return ListQuery{}, err
	}

	if raw := v.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return ListQuery{}, &paramError{Param: "page", Reason: "must be a non-negative integer"}
		}
		q.Page = page
	}

	if raw := v.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 || size > sizes.max {
			return ListQuery{}, &paramError{Param: "size", Reason: fmt.Sprintf("must be between 1 and %d", sizes.max)}
		}
		q.Size = size
	}

	return q, nil
}

func parseDecimalParam(v url.Values, name string) (decimal.NullDecimal, error) {
	raw := v.Get(name)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, &paramError{Param: name, Reason: "must be a decimal number"}
	}
	return decimal.NewNullDecimal(d), nil
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
