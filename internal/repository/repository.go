package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/schema"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
)

type UniqueViolation struct {
	Collection schema.Kind
	Field      string
	Value      string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("%s: %s.%s = %q", ErrUniqueViolation, e.Collection, e.Field, e.Value)
}

func (e *UniqueViolation) Is(target error) bool {
	return target == ErrUniqueViolation
}

// Repository persists marketplace records. Records are never deleted.
type Repository interface {
	listing.Source

	InsertUser(ctx context.Context, u model.User) error
	InsertService(ctx context.Context, s model.Service) error
	InsertProduct(ctx context.Context, p model.Product) error
	InsertBooking(ctx context.Context, b model.Booking) error
	// InsertPurchase stores p and increments the product's download counter
	// as one atomic step.
	InsertPurchase(ctx context.Context, p model.Purchase) error
	// InsertReview stores r and sets the target's rating to the mean of all
	// its reviews, returning that mean.
	InsertReview(ctx context.Context, r model.Review) (float64, error)

	GetService(ctx context.Context, id string) (model.Service, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)

	ServicesByProvider(ctx context.Context, providerID string) ([]model.Service, error)
	ProductsBySeller(ctx context.Context, sellerID string) ([]model.Product, error)
	BookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error)
	BookingsByService(ctx context.Context, serviceID string) ([]model.Booking, error)
	PurchasesByCustomer(ctx context.Context, customerID string) ([]model.Purchase, error)
	ReviewsFor(ctx context.Context, target model.ReviewTarget) ([]model.Review, error)
}

// IndexDef declares an equality index on one collection.
type IndexDef struct {
	Collection schema.Kind
	Fields     []string
	Unique     bool
}

func (d IndexDef) Name() string {
	return "idx_" + string(d.Collection) + "_" + strings.Join(d.Fields, "_")
}

// Indexes is the full index set. Only users.email is unique; the rest only
// bound lookup cost.
var Indexes = []IndexDef{
	{Collection: schema.Users, Fields: []string{"email"}, Unique: true},
	{Collection: schema.Services, Fields: []string{"category"}},
	{Collection: schema.Services, Fields: []string{"location"}},
	{Collection: schema.Services, Fields: []string{"provider_id"}},
	{Collection: schema.Products, Fields: []string{"category"}},
	{Collection: schema.Products, Fields: []string{"seller_id"}},
	{Collection: schema.Bookings, Fields: []string{"customer_id"}},
	{Collection: schema.Bookings, Fields: []string{"service_id"}},
	{Collection: schema.Purchases, Fields: []string{"customer_id"}},
	{Collection: schema.Purchases, Fields: []string{"product_id"}},
	{Collection: schema.Reviews, Fields: []string{"item_id", "item_type"}},
	{Collection: schema.Reviews, Fields: []string{"user_id"}},
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
