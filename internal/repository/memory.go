package repository

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/schema"
)

// MemoryRepository keeps every collection in process. A single RWMutex
// makes each write, including the email uniqueness check and the download
// counter increment, atomic with respect to every other call.
type MemoryRepository struct {
	mu sync.RWMutex

	users     *table[model.User]
	services  *table[model.Service]
	products  *table[model.Product]
	bookings  *table[model.Booking]
	purchases *table[model.Purchase]
	reviews   *table[model.Review]
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: newTable(schema.Users, func(u model.User) map[string]string {
			return map[string]string{"email": u.Email}
		}),
		services: newTable(schema.Services, func(s model.Service) map[string]string {
			return map[string]string{"category": s.Category, "location": s.Location, "provider_id": s.ProviderID}
		}),
		products: newTable(schema.Products, func(p model.Product) map[string]string {
			return map[string]string{"category": p.Category, "seller_id": p.SellerID}
		}),
		bookings: newTable(schema.Bookings, func(b model.Booking) map[string]string {
			return map[string]string{"customer_id": b.CustomerID, "service_id": b.ServiceID}
		}),
		purchases: newTable(schema.Purchases, func(p model.Purchase) map[string]string {
			return map[string]string{"customer_id": p.CustomerID, "product_id": p.ProductID}
		}),
		reviews: newTable(schema.Reviews, func(r model.Review) map[string]string {
			return map[string]string{"item_id": r.Target.ID(), "item_type": string(r.Target.Type()), "user_id": r.UserID}
		}),
	}
}

func (r *MemoryRepository) InsertUser(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users.insert(u.ID, u)
}

func (r *MemoryRepository) InsertService(_ context.Context, s model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.services.insert(s.ID, s)
}

func (r *MemoryRepository) InsertProduct(_ context.Context, p model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products.insert(p.ID, p)
}

func (r *MemoryRepository) InsertBooking(_ context.Context, b model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings.insert(b.ID, b)
}

func (r *MemoryRepository) InsertPurchase(_ context.Context, p model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products.get(p.ProductID)
	if !ok {
		return fmt.Errorf("product %s: %w", p.ProductID, ErrNotFound)
	}
	if err := r.purchases.insert(p.ID, p); err != nil {
		return err
	}
	product.Downloads++
	r.products.put(product.ID, product)
	return nil
}

func (r *MemoryRepository) InsertReview(_ context.Context, rv model.Review) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := rv.Target
	switch target.Type() {
	case model.ItemTypeService:
		if _, ok := r.services.get(target.ID()); !ok {
			return 0, fmt.Errorf("service %s: %w", target.ID(), ErrNotFound)
		}
	case model.ItemTypeProduct:
		if _, ok := r.products.get(target.ID()); !ok {
			return 0, fmt.Errorf("product %s: %w", target.ID(), ErrNotFound)
		}
	default:
		return 0, fmt.Errorf("review target: %w", ErrNotFound)
	}

	if err := r.reviews.insert(rv.ID, rv); err != nil {
		return 0, err
	}

	var sum float64
	all := r.reviews.find(reviewKey(target))
	for _, x := range all {
		sum += float64(x.Rating)
	}
	avg := sum / float64(len(all))

	if target.Type() == model.ItemTypeService {
		s, _ := r.services.get(target.ID())
		s.Rating = &avg
		r.services.put(s.ID, s)
	} else {
		p, _ := r.products.get(target.ID())
		p.Rating = &avg
		r.products.put(p.ID, p)
	}
	return avg, nil
}

func reviewKey(t model.ReviewTarget) map[string]string {
	return map[string]string{"item_id": t.ID(), "item_type": string(t.Type())}
}

func (r *MemoryRepository) GetService(_ context.Context, id string) (model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services.get(id)
	if !ok {
		return model.Service{}, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (r *MemoryRepository) GetProduct(_ context.Context, id string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products.get(id)
	if !ok {
		return model.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// newestFirst orders by creation time descending, then id.
func newestFirst[T any](items []T, id func(T) string, created func(T) time.Time) []T {
	slices.SortFunc(items, func(a, b T) int {
		if c := created(b).Compare(created(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	})
	return items
}

func (r *MemoryRepository) ServicesByProvider(_ context.Context, providerID string) ([]model.Service, error) {
	r.mu.RLock()
	out := r.services.find(map[string]string{"provider_id": providerID})
	r.mu.RUnlock()
	return newestFirst(out,
		func(s model.Service) string { return s.ID },
		func(s model.Service) time.Time { return s.CreatedAt }), nil
}

func (r *MemoryRepository) ProductsBySeller(_ context.Context, sellerID string) ([]model.Product, error) {
	r.mu.RLock()
	out := r.products.find(map[string]string{"seller_id": sellerID})
	r.mu.RUnlock()
	return newestFirst(out,
		func(p model.Product) string { return p.ID },
		func(p model.Product) time.Time { return p.CreatedAt }), nil
}

func (r *MemoryRepository) BookingsByCustomer(_ context.Context, customerID string) ([]model.Booking, error) {
	r.mu.RLock()
	out := r.bookings.find(map[string]string{"customer_id": customerID})
	r.mu.RUnlock()
	return newestFirst(out, bookingID, bookingCreated), nil
}

func (r *MemoryRepository) BookingsByService(_ context.Context, serviceID string) ([]model.Booking, error) {
	r.mu.RLock()
	out := r.bookings.find(map[string]string{"service_id": serviceID})
	r.mu.RUnlock()
	return newestFirst(out, bookingID, bookingCreated), nil
}

func bookingID(b model.Booking) string         { return b.ID }
func bookingCreated(b model.Booking) time.Time { return b.CreatedAt }

func (r *MemoryRepository) PurchasesByCustomer(_ context.Context, customerID string) ([]model.Purchase, error) {
	r.mu.RLock()
	out := r.purchases.find(map[string]string{"customer_id": customerID})
	r.mu.RUnlock()
	return newestFirst(out,
		func(p model.Purchase) string { return p.ID },
		func(p model.Purchase) time.Time { return p.CreatedAt }), nil
}

func (r *MemoryRepository) ReviewsFor(_ context.Context, target model.ReviewTarget) ([]model.Review, error) {
	r.mu.RLock()
	out := r.reviews.find(reviewKey(target))
	r.mu.RUnlock()
	return newestFirst(out,
		func(rv model.Review) string { return rv.ID },
		func(rv model.Review) time.Time { return rv.CreatedAt }), nil
}

// Services snapshots matching services each time the sequence is ranged
// over and yields them without holding the lock.
func (r *MemoryRepository) Services(ctx context.Context, c listing.Criteria) iter.Seq2[model.Service, error] {
	return func(yield func(model.Service, error) bool) {
		r.mu.RLock()
		var candidates []model.Service
		switch {
		case c.Categories != nil:
			candidates = r.services.findAny("category", c.Categories)
		case c.Location != nil:
			candidates = r.services.find(map[string]string{"location": *c.Location})
		default:
			candidates = r.services.all()
		}
		r.mu.RUnlock()

		out := slices.DeleteFunc(candidates, func(s model.Service) bool { return !c.MatchService(s) })
		c.SortServices(out)
		for _, s := range out {
			if err := ctx.Err(); err != nil {
				yield(model.Service{}, err)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (r *MemoryRepository) Products(ctx context.Context, c listing.Criteria) iter.Seq2[model.Product, error] {
	return func(yield func(model.Product, error) bool) {
		r.mu.RLock()
		var candidates []model.Product
		if c.Categories != nil {
			candidates = r.products.findAny("category", c.Categories)
		} else {
			candidates = r.products.all()
		}
		r.mu.RUnlock()

		out := slices.DeleteFunc(candidates, func(p model.Product) bool { return !c.MatchProduct(p) })
		c.SortProducts(out)
		for _, p := range out {
			if err := ctx.Err(); err != nil {
				yield(model.Product{}, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}
