package restaurant

import "github.com/shopspring/decimal"

type PackagesRequest struct {
	RestaurantID string
	PackageIDs   []string
}

type PackagesResponse struct {
	TraceID      string       `json:"traceId"`
	RestaurantID string       `json:"restaurantId"`
	Packages     []PackageDTO `json:"packages"`
	NotFound     []string     `json:"notFound"`
}

type PackageDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Quantity      int             `json:"quantity"`
	Status        string          `json:"status"`
	Reservable    bool            `json:"reservable"`
}
