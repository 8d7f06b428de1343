package model

import "time"

type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeProvider UserType = "provider"
	UserTypeSeller   UserType = "seller"
)

// UserTypes lists every accepted user_type value.
var UserTypes = []UserType{UserTypeCustomer, UserTypeProvider, UserTypeSeller}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	UserType     UserType  `json:"user_type"`
	CreatedAt    time.Time `json:"created_at"`
}
