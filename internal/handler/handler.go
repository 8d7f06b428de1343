package handler

import (
	"io"
	"net/http"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/service"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	router   *chi.Mux
	market   *service.MarketService
	listings *listing.Service
	auth     *Authenticator
}

func NewHandler(market *service.MarketService, listings *listing.Service, jwtSecret []byte) *Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(newCompressor().Handler)

	h := &Handler{
		router:   router,
		market:   market,
		listings: listings,
		auth:     NewAuthenticator(jwtSecret),
	}

	h.registerRoutes()
	return h
}

// newCompressor prefers brotli and falls back to chi's gzip and deflate.
func newCompressor() *middleware.Compressor {
	c := middleware.NewCompressor(5, "application/json", "text/plain")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

func (h *Handler) registerRoutes() {
	h.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)
	})

	h.router.Post("/auth/signup", h.SignUp)

	h.router.Get("/services", h.ListServices)
	h.router.Get("/services/{id}", h.GetService)
	h.router.Get("/products", h.ListProducts)
	h.router.Get("/products/{id}", h.GetProduct)
	h.router.Get("/niche/{niche}", h.ListNiche)
	h.router.Get("/reviews/{item_type}/{item_id}", h.ListReviews)
	h.router.Get("/providers/{id}/services", h.ProviderServices)
	h.router.Get("/sellers/{id}/products", h.SellerProducts)

	h.router.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticate)

		r.With(RequireUserType(model.UserTypeProvider)).Post("/services", h.CreateService)
		r.With(RequireUserType(model.UserTypeSeller)).Post("/products", h.CreateProduct)
		r.With(RequireUserType(model.UserTypeProvider)).Get("/services/{id}/bookings", h.ServiceBookings)

		r.Post("/bookings", h.CreateBooking)
		r.Get("/bookings", h.ListBookings)
		r.Post("/purchases", h.CreatePurchase)
		r.Get("/purchases", h.ListPurchases)
		r.Post("/reviews", h.CreateReview)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
