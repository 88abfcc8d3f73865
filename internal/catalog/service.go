// Package catalog manages the storefront's products.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/redisx"
)

type Service struct {
	Store kv.Store
	Now   func() time.Time
}

func NewService(store kv.Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	raws, err := s.Store.GetByPrefix(ctx, redisx.PrefixProduct)
	if err != nil {
		return nil, apperr.Persistence("list products", err)
	}
	out := make([]Product, 0, len(raws))
	for _, b := range raws {
		var p Product
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, apperr.Persistence("decode product", err)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	b, err := s.Store.Get(ctx, redisx.ProductKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Persistence("get product", err)
	}
	var p Product
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, apperr.Persistence("decode product", err)
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price.IsZero() || strings.TrimSpace(in.Category) == "" {
		return nil, apperr.Validation("Missing required fields: name, price, category")
	}

	id, err := s.Store.Incr(ctx, redisx.KeyProductCounter)
	if err != nil {
		return nil, apperr.Persistence("next product id", err)
	}

	p := Product{
		ID:           id,
		Name:         in.Name,
		Price:        in.Price,
		Image:        in.Image,
		Images:       in.Images,
		Category:     in.Category,
		Gender:       in.Gender,
		Sizes:        in.Sizes,
		SupplierLink: in.SupplierLink,
		SupplierCost: in.SupplierCost,
		Stock:        UnlimitedStock,
		CreatedAt:    s.Now().UTC(),
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Gender == "" {
		p.Gender = GenderUnisex
	}
	if len(p.Sizes) == 0 {
		p.Sizes = append([]string(nil), DefaultSizes...)
	}
	// zero falls back to unlimited as well
	if in.Stock != nil && *in.Stock != 0 {
		p.Stock = *in.Stock
	}

	if err := s.save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies the top-level fields present in patch over the stored
// product. The id never changes.
func (s *Service) Update(ctx context.Context, id int64, patch []byte) (*Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, p); err != nil {
		return nil, apperr.Validation("invalid product payload: %v", err)
	}
	now := s.Now().UTC()
	p.ID = id
	p.UpdatedAt = &now

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product permanently. Orders keep their own snapshot.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, redisx.ProductKey(id)); err != nil {
		return apperr.Persistence("delete product", err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, p *Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return apperr.Persistence("encode product", err)
	}
	if err := s.Store.Set(ctx, redisx.ProductKey(p.ID), b); err != nil {
		return apperr.Persistence("save product", err)
	}
	return nil
}
