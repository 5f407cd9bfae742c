package dto

type OrderRequest struct {
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
	Customer       CustomerRequest    `json:"customer"`
	RestaurantID   string             `json:"restaurantId"`
	Items          []OrderItemRequest `json:"items"`
	PaymentMethod  string             `json:"paymentMethod"`
	Fulfillment    string             `json:"fulfillment"`
	Notes          string             `json:"notes"`
}

type CustomerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type OrderItemRequest struct {
	PackageID string `json:"packageId"`
	Quantity  int    `json:"quantity"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type CancelRequest struct {
	Note string `json:"note"`
}
