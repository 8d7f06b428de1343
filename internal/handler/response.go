package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/repository"
	"markethub/marketplace/internal/schema"
	"markethub/marketplace/internal/service"
)

var (
	errAccessDenied = errors.New("access denied")
	errBadBody      = errors.New("invalid request body")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, schema.ErrViolation),
		errors.Is(err, listing.ErrQuery):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errAccessDenied), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUniqueViolation):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

const maxBodyBytes = 1 << 20

// decodeDocument reads a JSON object body of at most maxBodyBytes as a
// schema document.
func decodeDocument(w http.ResponseWriter, r *http.Request) (schema.Document, error) {
	var doc schema.Document
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&doc); err != nil || doc == nil {
		return nil, errBadBody
	}
	return doc, nil
}

func mustPrincipal(r *http.Request) Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}
