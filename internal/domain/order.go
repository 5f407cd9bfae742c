package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Fulfillment string

const (
	FulfillmentDelivery Fulfillment = "delivery"
	FulfillmentPickup   Fulfillment = "pickup"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RestaurantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type OrderItem struct {
	PackageID string          `json:"packageId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Pricing is built with NewPricing; Total is never set on its own.
type Pricing struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

func NewPricing(subtotal, deliveryFee, tax, discount decimal.Decimal) Pricing {
	total := subtotal.Add(deliveryFee).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Pricing{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Tax:         tax,
		Discount:    discount,
		Total:       total,
	}
}

type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

type Payment struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID *string       `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

type Order struct {
	ID                 string        `json:"id"`
	IdempotencyKey     string        `json:"idempotencyKey,omitempty"`
	Customer           Customer      `json:"customer"`
	Restaurant         RestaurantRef `json:"restaurant"`
	Fulfillment        Fulfillment   `json:"fulfillment"`
	Items              []OrderItem   `json:"items"`
	Pricing            Pricing       `json:"pricing"`
	Status             OrderStatus   `json:"status"`
	StatusHistory      []StatusEntry `json:"statusHistory"`
	Payment            Payment       `json:"payment"`
	Notes              string        `json:"notes,omitempty"`
	ActualDeliveryTime *time.Time    `json:"actualDeliveryTime,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	Version            int64         `json:"version"`
}

type NewOrderParams struct {
	ID             string
	IdempotencyKey string
	Customer       Customer
	Restaurant     *Restaurant
	Fulfillment    Fulfillment
	Items          []OrderItem
	PaymentMethod  PaymentMethod
	Notes          string
	Now            time.Time
}

// NewOrder builds a pending order. Line totals and pricing are derived from
// the items' unit prices and the restaurant's fee and tax settings.
func NewOrder(p NewOrderParams) *Order {
	items := make([]OrderItem, len(p.Items))
	subtotal := decimal.Zero
	for i, item := range p.Items {
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(item.LineTotal)
		items[i] = item
	}

	deliveryFee := decimal.Zero
	if p.Fulfillment == FulfillmentDelivery {
		deliveryFee = p.Restaurant.DeliveryFee
	}
	tax := subtotal.Mul(p.Restaurant.TaxRate).Round(2)

	return &Order{
		ID:             p.ID,
		IdempotencyKey: p.IdempotencyKey,
		Customer:       p.Customer,
		Restaurant:     RestaurantRef{ID: p.Restaurant.ID, Name: p.Restaurant.Name},
		Fulfillment:    p.Fulfillment,
		Items:          items,
		Pricing:        NewPricing(subtotal, deliveryFee, tax, decimal.Zero),
		Status:         OrderStatusPending,
		StatusHistory: []StatusEntry{
			{Status: OrderStatusPending, Timestamp: p.Now, Note: "order placed"},
		},
		Payment: Payment{
			Method: p.PaymentMethod,
			Status: PaymentStatusPending,
		},
		Notes:     p.Notes,
		CreatedAt: p.Now,
		UpdatedAt: p.Now,
	}
}

// Clone returns a deep copy so stores never share slices with callers.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.StatusHistory = append([]StatusEntry(nil), o.StatusHistory...)
	if o.ActualDeliveryTime != nil {
		t := *o.ActualDeliveryTime
		c.ActualDeliveryTime = &t
	}
	if o.Payment.PaidAt != nil {
		t := *o.Payment.PaidAt
		c.Payment.PaidAt = &t
	}
	if o.Payment.TransactionID != nil {
		id := *o.Payment.TransactionID
		c.Payment.TransactionID = &id
	}
	return &c
}
