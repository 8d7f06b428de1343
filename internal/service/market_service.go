package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/repository"
	"markethub/marketplace/internal/schema"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrForbidden is returned when the caller does not own the record it asks about.
var ErrForbidden = errors.New("forbidden")

const maxPasswordBytes = 72

type MarketService struct {
	repo      repository.Repository
	validator *schema.Validator
	now       func() time.Time
}

func NewMarketService(repo repository.Repository, v *schema.Validator) *MarketService {
	if v == nil {
		v = schema.New()
	}
	return &MarketService{repo: repo, validator: v, now: time.Now}
}

// owned overwrites every server-owned field of doc. Client values for these
// fields are never trusted.
func (s *MarketService) owned(doc schema.Document, fields map[string]any) schema.Document {
	d := doc.Clone()
	if d == nil {
		d = schema.Document{}
	}
	delete(d, "id")
	for k, v := range fields {
		if v == nil {
			delete(d, k)
			continue
		}
		d[k] = v
	}
	return d
}

func (s *MarketService) SignUp(ctx context.Context, doc schema.Document) (model.User, error) {
	password, _ := doc["password"].(string)
	if password == "" {
		return model.User{}, &schema.Violation{Kind: schema.Users, Field: "password", Reason: schema.ReasonMissing}
	}
	// bcrypt rejects longer input
	if len(password) > maxPasswordBytes {
		return model.User{}, &schema.Violation{Kind: schema.Users, Field: "password", Reason: schema.ReasonRule, Detail: "max=72 bytes"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	d := s.owned(doc, map[string]any{
		"password":      nil,
		"password_hash": string(hash),
		"created_at":    s.now().UTC(),
	})
	if email, ok := d["email"].(string); ok {
		d["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	if _, err := s.validator.Validate(schema.Users, d); err != nil {
		return model.User{}, err
	}

	u := model.User{
		ID:           uuid.NewString(),
		Name:         d.String("name"),
		Email:        d.String("email"),
		PasswordHash: d.String("password_hash"),
		UserType:     model.UserType(d.String("user_type")),
		CreatedAt:    d.Time("created_at"),
	}
	if err := s.repo.InsertUser(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *MarketService) CreateService(ctx context.Context, providerID string, doc schema.Document) (model.Service, error) {
	d := s.owned(doc, map[string]any{
		"provider_id": providerID,
		"rating":      nil,
		"created_at":  s.now().UTC(),
	})
	if _, err := s.validator.Validate(schema.Services, d); err != nil {
		return model.Service{}, err
	}

	svc := model.Service{
		ID:          uuid.NewString(),
		ProviderID:  providerID,
		Title:       d.String("title"),
		Description: d.String("description"),
		Category:    d.String("category"),
		Price:       d.Float("price"),
		Location:    d.String("location"),
		Icon:        d.OptString("icon"),
		CreatedAt:   d.Time("created_at"),
	}
	if err := s.repo.InsertService(ctx, svc); err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

func (s *MarketService) CreateProduct(ctx context.Context, sellerID string, doc schema.Document) (model.Product, error) {
	d := s.owned(doc, map[string]any{
		"seller_id":  sellerID,
		"rating":     nil,
		"downloads":  0,
		"created_at": s.now().UTC(),
	})
	if _, err := s.validator.Validate(schema.Products, d); err != nil {
		return model.Product{}, err
	}

	p := model.Product{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Title:       d.String("title"),
		Description: d.String("description"),
		Category:    d.String("category"),
		Price:       d.Float("price"),
		FileType:    d.String("file_type"),
		FileURL:     d.String("file_url"),
		Icon:        d.OptString("icon"),
		CreatedAt:   d.Time("created_at"),
	}
	if err := s.repo.InsertProduct(ctx, p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (s *MarketService) Book(ctx context.Context, customerID string, doc schema.Document) (model.Booking, error) {
	d := s.owned(doc, map[string]any{
		"customer_id": customerID,
		"status":      model.BookingStatusPending,
		"created_at":  s.now().UTC(),
	})
	if _, err := s.validator.Validate(schema.Bookings, d); err != nil {
		return model.Booking{}, err
	}

	if _, err := s.repo.GetService(ctx, d.String("service_id")); err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		ServiceID:   d.String("service_id"),
		BookingDate: d.String("booking_date"),
		BookingTime: d.String("booking_time"),
		Notes:       d.String("notes"),
		Status:      model.BookingStatusPending,
		CreatedAt:   d.Time("created_at"),
	}
	if err := s.repo.InsertBooking(ctx, b); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Purchase records a completed purchase of a product. Amount and download_url
// come from the product, not the request.
func (s *MarketService) Purchase(ctx context.Context, customerID string, doc schema.Document) (model.Purchase, error) {
	d := s.owned(doc, map[string]any{
		"customer_id":  customerID,
		"amount":       nil,
		"download_url": nil,
		"status":       model.PurchaseStatusCompleted,
		"created_at":   s.now().UTC(),
	})
	if _, err := s.validator.Validate(schema.Purchases, d); err != nil {
		return model.Purchase{}, err
	}

	product, err := s.repo.GetProduct(ctx, d.String("product_id"))
	if err != nil {
		return model.Purchase{}, err
	}

	p := model.Purchase{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		ProductID:     product.ID,
		PaymentMethod: d.String("payment_method"),
		Amount:        product.Price,
		Status:        model.PurchaseStatusCompleted,
		DownloadURL:   product.FileURL,
		CreatedAt:     d.Time("created_at"),
	}
	if err := s.repo.InsertPurchase(ctx, p); err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

// Review stores a review and returns it with the target's new mean rating.
func (s *MarketService) Review(ctx context.Context, userID string, doc schema.Document) (model.Review, float64, error) {
	d := s.owned(doc, map[string]any{
		"user_id":    userID,
		"created_at": s.now().UTC(),
	})
	if _, err := s.validator.Validate(schema.Reviews, d); err != nil {
		return model.Review{}, 0, err
	}

	target, err := model.ParseReviewTarget(d.String("item_type"), d.String("item_id"))
	if err != nil {
		return model.Review{}, 0, &schema.Violation{Kind: schema.Reviews, Field: "item_id", Reason: schema.ReasonRule, Detail: err.Error()}
	}

	rv := model.Review{
		ID:        uuid.NewString(),
		Target:    target,
		UserID:    userID,
		Rating:    d.Int32("rating"),
		Comment:   d.String("comment"),
		CreatedAt: d.Time("created_at"),
	}
	avg, err := s.repo.InsertReview(ctx, rv)
	if err != nil {
		return model.Review{}, 0, err
	}
	return rv, avg, nil
}

func (s *MarketService) ServiceByID(ctx context.Context, id string) (model.Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *MarketService) ProductByID(ctx context.Context, id string) (model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *MarketService) BookingsFor(ctx context.Context, customerID string) ([]model.Booking, error) {
	return s.repo.BookingsByCustomer(ctx, customerID)
}

func (s *MarketService) PurchasesFor(ctx context.Context, customerID string) ([]model.Purchase, error) {
	return s.repo.PurchasesByCustomer(ctx, customerID)
}

func (s *MarketService) ReviewsFor(ctx context.Context, itemType, itemID string) ([]model.Review, error) {
	target, err := model.ParseReviewTarget(itemType, itemID)
	if err != nil {
		return nil, &schema.Violation{Kind: schema.Reviews, Field: "item_type", Reason: schema.ReasonEnum, Detail: err.Error()}
	}
	return s.repo.ReviewsFor(ctx, target)
}

func (s *MarketService) ServicesByProvider(ctx context.Context, providerID string) ([]model.Service, error) {
	return s.repo.ServicesByProvider(ctx, providerID)
}

func (s *MarketService) ProductsBySeller(ctx context.Context, sellerID string) ([]model.Product, error) {
	return s.repo.ProductsBySeller(ctx, sellerID)
}

// BookingsForService lists bookings of a service owned by providerID.
func (s *MarketService) BookingsForService(ctx context.Context, providerID, serviceID string) ([]model.Booking, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != providerID {
		return nil, fmt.Errorf("service %s: %w", serviceID, ErrForbidden)
	}
	return s.repo.BookingsByService(ctx, serviceID)
}
