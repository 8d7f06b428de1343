package handler

import (
	"net/http"

	"markethub/marketplace/internal/listing"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	f, err := listing.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	services, err := listing.Collect(h.listings.Services(r.Context(), f))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := listing.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	products, err := listing.Collect(h.listings.Products(r.Context(), f))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// ListNiche lists products of a niche. Unknown niches answer with [].
func (h *Handler) ListNiche(w http.ResponseWriter, r *http.Request) {
	f, err := listing.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	products, err := listing.Collect(h.listings.Niche(r.Context(), chi.URLParam(r, "niche"), f))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	s, err := h.market.ServiceByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.market.ProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ProviderServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.market.ServicesByProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) SellerProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.market.ProductsBySeller(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.market.CreateService(r.Context(), mustPrincipal(r).UserID, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.market.CreateProduct(r.Context(), mustPrincipal(r).UserID, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
