package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/repository"
	"markethub/marketplace/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, repo repository.Repository, id string) model.Product {
	t.Helper()
	p := model.Product{
		ID:          id,
		SellerID:    "seller-1",
		Title:       "Resume template",
		Description: "One page",
		Category:    "resume",
		Price:       12.5,
		FileType:    "pdf",
		FileURL:     "https://files.example.com/" + id + ".pdf",
		CreatedAt:   t0,
	}
	require.NoError(t, repo.InsertProduct(context.Background(), p))
	return p
}

func seedService(t *testing.T, repo repository.Repository, id, category, location string, created time.Time) model.Service {
	t.Helper()
	s := model.Service{
		ID:          id,
		ProviderID:  "provider-1",
		Title:       "Service " + id,
		Description: "desc",
		Category:    category,
		Price:       40,
		Location:    location,
		CreatedAt:   created,
	}
	require.NoError(t, repo.InsertService(context.Background(), s))
	return s
}

// testRepository runs the behaviour every Repository implementation shares.
func testRepository(t *testing.T, newRepo func(t *testing.T) repository.Repository) {
	t.Run("UniqueEmail", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		u := model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", PasswordHash: "x", UserType: model.UserTypeCustomer, CreatedAt: t0}
		require.NoError(t, repo.InsertUser(ctx, u))

		u.ID = "u2"
		err := repo.InsertUser(ctx, u)
		assert.True(t, errors.Is(err, repository.ErrUniqueViolation))
		var uv *repository.UniqueViolation
		require.True(t, errors.As(err, &uv))
		assert.Equal(t, schema.Users, uv.Collection)
	})

	t.Run("ConcurrentSignupsSameEmail", func(t *testing.T) {
		repo := newRepo(t)

		const n = 20
		var (
			g         errgroup.Group
			succeeded atomic.Int32
		)
		for i := range n {
			g.Go(func() error {
				err := repo.InsertUser(context.Background(), model.User{
					ID:           fmt.Sprintf("user-%d", i),
					Name:         "Racer",
					Email:        "race@example.com",
					PasswordHash: "x",
					UserType:     model.UserTypeCustomer,
					CreatedAt:    t0,
				})
				if err == nil {
					succeeded.Add(1)
					return nil
				}
				if !errors.Is(err, repository.ErrUniqueViolation) {
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.EqualValues(t, 1, succeeded.Load())
	})

	t.Run("ConcurrentPurchasesCountExactly", func(t *testing.T) {
		repo := newRepo(t)
		seedProduct(t, repo, "prod-1")

		const n = 50
		var g errgroup.Group
		for i := range n {
			g.Go(func() error {
				return repo.InsertPurchase(context.Background(), model.Purchase{
					ID:            fmt.Sprintf("pur-%d", i),
					CustomerID:    "cust-1",
					ProductID:     "prod-1",
					PaymentMethod: "card",
					Amount:        12.5,
					Status:        model.PurchaseStatusCompleted,
					CreatedAt:     t0,
				})
			})
		}
		require.NoError(t, g.Wait())

		p, err := repo.GetProduct(context.Background(), "prod-1")
		require.NoError(t, err)
		assert.EqualValues(t, n, p.Downloads)

		purchases, err := repo.PurchasesByCustomer(context.Background(), "cust-1")
		require.NoError(t, err)
		assert.Len(t, purchases, n)
	})

	t.Run("PurchaseOfMissingProductWritesNothing", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.InsertPurchase(context.Background(), model.Purchase{ID: "pur-x", CustomerID: "cust-2", ProductID: "ghost", CreatedAt: t0})
		assert.ErrorIs(t, err, repository.ErrNotFound)

		purchases, err := repo.PurchasesByCustomer(context.Background(), "cust-2")
		require.NoError(t, err)
		assert.Empty(t, purchases)
	})

	t.Run("ReviewsAverageOntoTarget", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedService(t, repo, "svc-1", "design", "Remote", t0)

		avg, err := repo.InsertReview(ctx, model.Review{ID: "r1", Target: model.ServiceTarget("svc-1"), UserID: "u1", Rating: 5, Comment: "great", CreatedAt: t0})
		require.NoError(t, err)
		assert.Equal(t, 5.0, avg)

		avg, err = repo.InsertReview(ctx, model.Review{ID: "r2", Target: model.ServiceTarget("svc-1"), UserID: "u2", Rating: 2, Comment: "meh", CreatedAt: t0.Add(time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, 3.5, avg)

		s, err := repo.GetService(ctx, "svc-1")
		require.NoError(t, err)
		require.NotNil(t, s.Rating)
		assert.Equal(t, 3.5, *s.Rating)

		reviews, err := repo.ReviewsFor(ctx, model.ServiceTarget("svc-1"))
		require.NoError(t, err)
		require.Len(t, reviews, 2)
		assert.Equal(t, "r2", reviews[0].ID)

		// same id under the other item type is a different target
		reviews, err = repo.ReviewsFor(ctx, model.ProductTarget("svc-1"))
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})

	t.Run("ReviewOfMissingTarget", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.InsertReview(context.Background(), model.Review{ID: "r9", Target: model.ProductTarget("ghost"), UserID: "u1", Rating: 4, CreatedAt: t0})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetService(context.Background(), "nope")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = repo.GetProduct(context.Background(), "nope")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ListingCriteria", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedService(t, repo, "b", "design", "Berlin", t0)
		seedService(t, repo, "a", "design", "Remote", t0)
		seedService(t, repo, "c", "home", "Berlin", t0.Add(time.Hour))

		design := "design"
		got, err := listing.Collect(repo.Services(ctx, listing.Filter{Category: &design}.Criteria()))
		require.NoError(t, err)
		require.Len(t, got, 2)
		// equal created_at breaks ties on id
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)

		berlin := "Berlin"
		got, err = listing.Collect(repo.Services(ctx, listing.Filter{Location: &berlin}.Criteria()))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "c", got[0].ID)

		got, err = listing.Collect(repo.Services(ctx, listing.Filter{}.Criteria()))
		require.NoError(t, err)
		assert.Len(t, got, 3)

		// ASCII search is case-insensitive in every store
		search := "SERVICE A"
		got, err = listing.Collect(repo.Services(ctx, listing.Filter{Search: &search}.Criteria()))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
	})

	t.Run("ListsByOwner", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedService(t, repo, "s1", "design", "Remote", t0)
		seedService(t, repo, "s2", "design", "Remote", t0.Add(time.Hour))
		seedProduct(t, repo, "p1")

		services, err := repo.ServicesByProvider(ctx, "provider-1")
		require.NoError(t, err)
		require.Len(t, services, 2)
		assert.Equal(t, "s2", services[0].ID)

		products, err := repo.ProductsBySeller(ctx, "seller-1")
		require.NoError(t, err)
		assert.Len(t, products, 1)

		require.NoError(t, repo.InsertBooking(ctx, model.Booking{ID: "b1", CustomerID: "cust-1", ServiceID: "s1", BookingDate: "2024-06-01", BookingTime: "10:00", Status: model.BookingStatusPending, CreatedAt: t0}))
		bookings, err := repo.BookingsByService(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, bookings, 1)
		bookings, err = repo.BookingsByCustomer(ctx, "cust-1")
		require.NoError(t, err)
		assert.Len(t, bookings, 1)
		bookings, err = repo.BookingsByCustomer(ctx, "someone-else")
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})
}

func TestMemoryRepository(t *testing.T) {
	testRepository(t, func(*testing.T) repository.Repository {
		return repository.NewMemoryRepository()
	})
}

func TestMemoryRepository_CancelledListing(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedService(t, repo, "s1", "design", "Remote", t0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := listing.Collect(repo.Services(ctx, listing.Filter{}.Criteria()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexSQL(t *testing.T) {
	assert.Equal(t,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)",
		repository.IndexSQL(repository.Indexes[0]))
	assert.Equal(t,
		"CREATE INDEX IF NOT EXISTS idx_reviews_item_id_item_type ON reviews (item_id, item_type)",
		repository.IndexSQL(repository.IndexDef{Collection: schema.Reviews, Fields: []string{"item_id", "item_type"}}))
}
