package model

import "time"

type Service struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"provider_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	Icon        *string   `json:"icon,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	FileType    string    `json:"file_type"`
	FileURL     string    `json:"file_url"`
	Icon        *string   `json:"icon,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Downloads   int32     `json:"downloads"`
	CreatedAt   time.Time `json:"created_at"`
}
