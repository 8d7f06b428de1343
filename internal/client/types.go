package client

import (
	"errors"
	"fmt"
	"strings"

	"markethub/marketplace/internal/model"
)

// DefaultRating is shown for listings nobody has reviewed yet.
const DefaultRating = 5.0

// Listing is a product or service as a storefront renders it. Fields that
// only one kind carries are left zero for the other.
type Listing struct {
	Kind        model.ItemType `json:"-"`
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Location    string         `json:"location,omitempty"`
	Icon        *string        `json:"icon,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Downloads   *int32         `json:"downloads,omitempty"`
}

func (l Listing) DisplayRating() float64 {
	if l.Rating == nil {
		return DefaultRating
	}
	return *l.Rating
}

func (l Listing) DisplayDownloads() int32 {
	if l.Downloads == nil {
		return 0
	}
	return *l.Downloads
}

// Storefront is the landing page data: every product and service.
type Storefront struct {
	Products []Listing
	Services []Listing
}

type PurchaseRequest struct {
	ProductID     string `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
}

type BookingRequest struct {
	ServiceID   string `json:"service_id"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
	Notes       string `json:"notes"`
}

type purchaseResponse struct {
	DownloadURL string `json:"download_url"`
}

var ErrTransport = errors.New("request failed")

// Error is any failed call: the request never completed, or the API
// answered with a non-2xx status.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrTransport, e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	return target == ErrTransport
}

func (e *Error) Unwrap() error {
	return e.Err
}
