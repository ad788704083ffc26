package order

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusPacking   OrderStatus = "PACKING"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var ErrInvalidStatus = errors.New("invalid order status")

func (os OrderStatus) String() string {
	return string(os)
}

func (os OrderStatus) Valid() bool {
	switch os {
	case StatusPending, StatusPaid, StatusPacking, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func ParseStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type Address struct {
	FirstName string
	LastName  string
	Street    string
	PostCode  string
	City      string
	Country   string
}

// OrderItem is a snapshot of a purchased variant. ProductID and VariantID
// become nil when the catalog entry is later deleted.
type OrderItem struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"orderId"`
	ProductID     *uuid.UUID      `json:"productId"`
	VariantID     *uuid.UUID      `json:"variantId"`
	ProductName   string          `json:"productName"`
	VariantWeight string          `json:"variantWeight"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type Order struct {
	ID                    uuid.UUID       `json:"id"`
	OrderNumber           string          `json:"orderNumber"`
	UserID                uuid.UUID       `json:"userId"`
	ShippingFirstName     string          `json:"shippingFirstName"`
	ShippingLastName      string          `json:"shippingLastName"`
	ShippingStreet        string          `json:"shippingStreet"`
	ShippingPostCode      string          `json:"shippingPostCode"`
	ShippingCity          string          `json:"shippingCity"`
	ShippingCountry       string          `json:"shippingCountry"`
	BillingSameAsShipping bool            `json:"billingSameAsShipping"`
	BillingFirstName      string          `json:"billingFirstName"`
	BillingLastName       string          `json:"billingLastName"`
	BillingStreet         string          `json:"billingStreet"`
	BillingPostCode       string          `json:"billingPostCode"`
	BillingCity           string          `json:"billingCity"`
	BillingCountry        string          `json:"billingCountry"`
	Email                 string          `json:"email"`
	PaymentType           string          `json:"paymentType"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	DeliveryCost          decimal.Decimal `json:"deliveryCost"`
	Total                 decimal.Decimal `json:"total"`
	Status                OrderStatus     `json:"status"`
	Items                 []OrderItem     `json:"items"`
	User                  *UserSummary    `json:"user,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (o *Order) setShipping(a Address) {
	o.ShippingFirstName = a.FirstName
	o.ShippingLastName = a.LastName
	o.ShippingStreet = a.Street
	o.ShippingPostCode = a.PostCode
	o.ShippingCity = a.City
	o.ShippingCountry = a.Country
}

func (o *Order) setBilling(a Address) {
	o.BillingFirstName = a.FirstName
	o.BillingLastName = a.LastName
	o.BillingStreet = a.Street
	o.BillingPostCode = a.PostCode
	o.BillingCity = a.City
	o.BillingCountry = a.Country
}

type ItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

type CreateInput struct {
	Shipping              Address
	BillingSameAsShipping bool
	Billing               Address
	Email                 string
	PaymentType           string
	Items                 []ItemInput
}

// ListFilter selects orders for the admin listing. A nil Status matches all.
type ListFilter struct {
	Status *OrderStatus
	Limit  int
	Offset int
}

type Page struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}
