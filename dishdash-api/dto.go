package main

import (
	"time"

	"github.com/dishdash-app/dishdash/catalog"
	"github.com/dishdash-app/dishdash/orders"
)

type SignUpRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	RePassword string `json:"re_password" validate:"required,eqfield=Password"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type HomeResponse struct {
	Menu   []catalog.CategoryGroup `json:"menu"`
	Offers []catalog.Offer         `json:"offers"`
}

type NewOrderRequest struct {
	ItemName  string  `json:"item_name" validate:"required"`
	ItemPrice float64 `json:"item_price" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required"`
	OrderType string  `json:"order_type" validate:"required,oneof=Delivery Pickup"`

	// Optional overrides for the profile contact details.
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type NewOrderResponse struct {
	OrderID    string    `json:"order_id"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	OrderedAt  time.Time `json:"ordered_at"`
}

type OrderListResponse struct {
	Orders []orders.Order `json:"orders"`
}

type UpdateProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
}

type PhotoResponse struct {
	ProfilePicture string `json:"profilePicture"`
}
