package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"markethub/marketplace/internal/handler"
	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/repository"
	"markethub/marketplace/internal/service"

	"github.com/andybalholm/brotli"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestProducts_SendsFilterAndDecodesBrotli(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "resume", r.URL.Query().Get("category"))
		assert.Equal(t, "10-20", r.URL.Query().Get("price"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "br", r.Header.Get("Accept-Encoding"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		json.NewEncoder(bw).Encode([]map[string]any{
			{"id": "p1", "title": "CV", "price": 12, "rating": 4.2, "downloads": 9},
			{"id": "p2", "title": "Letter", "price": 15},
		})
		bw.Close()
	}))
	defer ts.Close()

	c := NewClient(Config{APIURL: ts.URL, Token: "tok"})
	items, err := c.Products(context.Background(), listing.Filter{
		Category: ptr("resume"),
		Price:    &listing.PriceFilter{Min: ptr(10.0), Max: ptr(20.0)},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, model.ItemTypeProduct, items[0].Kind)
	assert.Equal(t, 4.2, items[0].DisplayRating())
	assert.EqualValues(t, 9, items[0].DisplayDownloads())
	// unrated and never downloaded
	assert.Equal(t, DefaultRating, items[1].DisplayRating())
	assert.Zero(t, items[1].DisplayDownloads())
}

func TestNonSuccessIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"product ghost: not found"}`))
	}))
	defer ts.Close()

	c := NewClient(Config{APIURL: ts.URL})
	_, err := c.Purchase(context.Background(), PurchaseRequest{ProductID: "ghost", PaymentMethod: "card"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "not found")
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(Config{APIURL: url})
	_, err := c.Services(context.Background(), listing.Filter{})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestStorefront_FetchesBothInParallel(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products":
			w.Write([]byte(`[{"id":"p1","title":"CV","price":5}]`))
		case "/services":
			w.Write([]byte(`[{"id":"s1","title":"Tutor","price":30,"location":"Remote"},{"id":"s2","title":"Design","price":60,"location":"Berlin"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	sf, err := NewClient(Config{APIURL: ts.URL}).Storefront(context.Background())
	require.NoError(t, err)
	assert.Len(t, sf.Products, 1)
	assert.Len(t, sf.Services, 2)
	assert.Equal(t, model.ItemTypeService, sf.Services[0].Kind)
	assert.EqualValues(t, 2, calls.Load())
}

func TestStorefront_OneFailureFailsAll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	_, err := NewClient(Config{APIURL: ts.URL}).Storefront(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

// Against the real router, including its brotli compressor.
func TestEndToEnd(t *testing.T) {
	secret := []byte("e2e-secret")
	repo := repository.NewMemoryRepository()
	h := handler.NewHandler(service.NewMarketService(repo, nil), listing.NewService(repo), secret)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx := context.Background()
	require.NoError(t, repo.InsertProduct(ctx, model.Product{
		ID: "p1", SellerID: "s1", Title: "Modern CV", Description: "Resume", Category: "cv",
		Price: 9, FileType: "pdf", FileURL: "https://cdn.example.com/cv.pdf", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.InsertService(ctx, model.Service{
		ID: "svc1", ProviderID: "prov", Title: "Tutoring", Description: "Maths", Category: "education",
		Price: 25, Location: "Remote", CreatedAt: time.Now(),
	}))

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, handler.Claims{
		UserType:         model.UserTypeCustomer,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "cust-1"},
	}).SignedString(secret)
	require.NoError(t, err)

	c := NewClient(Config{APIURL: ts.URL, Token: tok})

	items, err := c.Niche(ctx, "resume", listing.Filter{Search: ptr("modern")})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, DefaultRating, items[0].DisplayRating())

	dl, err := c.Purchase(ctx, PurchaseRequest{ProductID: "p1", PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cv.pdf", dl)

	items, err = c.Products(ctx, listing.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].DisplayDownloads())

	require.NoError(t, c.Book(ctx, BookingRequest{ServiceID: "svc1", BookingDate: "2024-10-01", BookingTime: "16:00", Notes: "online"}))

	err = c.Book(ctx, BookingRequest{ServiceID: "svc1", BookingDate: "tomorrow", BookingTime: "16:00"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	items, err = c.Products(ctx, listing.Filter{Category: ptr("templates")})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
