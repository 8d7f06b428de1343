package listing

import (
	"context"
	"iter"

	"markethub/marketplace/internal/model"
)

// Source evaluates resolved criteria against a store. Each range over a
// returned sequence must re-read the store.
type Source interface {
	Services(ctx context.Context, c Criteria) iter.Seq2[model.Service, error]
	Products(ctx context.Context, c Criteria) iter.Seq2[model.Product, error]
}

// Service answers listing queries. It keeps no state between calls.
type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

func (s *Service) Services(ctx context.Context, f Filter) iter.Seq2[model.Service, error] {
	c := f.Criteria()
	if c.Empty() {
		return empty[model.Service]
	}
	return s.src.Services(ctx, c)
}

func (s *Service) Products(ctx context.Context, f Filter) iter.Seq2[model.Product, error] {
	c := f.Criteria()
	if c.Empty() {
		return empty[model.Product]
	}
	return s.src.Products(ctx, c)
}

// Niche lists products grouped under niche. An unknown niche yields nothing.
func (s *Service) Niche(ctx context.Context, niche string, f Filter) iter.Seq2[model.Product, error] {
	f.Niche = &niche
	return s.Products(ctx, f)
}

func empty[T any](func(T, error) bool) {}

// Collect drains seq, stopping at the first error. The result is never nil
// so it encodes as an empty JSON array.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
