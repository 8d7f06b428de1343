package handler

import (
	"net/http"

	"markethub/marketplace/internal/model"

	"github.com/go-chi/chi/v5"
)

type reviewResponse struct {
	Review model.Review `json:"review"`
	Rating float64      `json:"rating"`
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rv, avg, err := h.market.Review(r.Context(), mustPrincipal(r).UserID, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reviewResponse{Review: rv, Rating: avg})
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.market.ReviewsFor(r.Context(), chi.URLParam(r, "item_type"), chi.URLParam(r, "item_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
