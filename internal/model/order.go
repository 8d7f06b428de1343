package model

import "time"

const (
	BookingStatusPending    = "pending"
	PurchaseStatusCompleted = "completed"
)

type Booking struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	ServiceID   string    `json:"service_id"`
	BookingDate string    `json:"booking_date"`
	BookingTime string    `json:"booking_time"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Purchase struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	ProductID     string    `json:"product_id"`
	PaymentMethod string    `json:"payment_method"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	DownloadURL   string    `json:"download_url"`
	CreatedAt     time.Time `json:"created_at"`
}
