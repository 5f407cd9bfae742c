package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Restaurant is the aggregate root for its packages.
type Restaurant struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Packages    []Package       `json:"packages"`
}

// FindPackage returns a pointer into r.Packages so callers can mutate stock
// in place on a private copy of the document.
func (r *Restaurant) FindPackage(id string) *Package {
	id = strings.TrimSpace(id)
	for i := range r.Packages {
		if strings.TrimSpace(r.Packages[i].ID) == id {
			return &r.Packages[i]
		}
	}
	return nil
}

func (r *Restaurant) Clone() *Restaurant {
	c := *r
	c.Packages = make([]Package, len(r.Packages))
	copy(c.Packages, r.Packages)
	return &c
}
