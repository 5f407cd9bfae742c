package domain

import "github.com/shopspring/decimal"

type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusInactive PackageStatus = "inactive"
)

// Package is one surplus offer embedded in a restaurant document.
// Quantity is the reservable stock counter and is only changed through the
// inventory ledger.
type Package struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Quantity      int             `json:"quantity"`
	Status        PackageStatus   `json:"status"`
}

func (p Package) IsActive() bool {
	return p.Status == PackageStatusActive
}

// Take removes quantity from stock. A package that runs out is deactivated.
func (p *Package) Take(quantity int) {
	p.Quantity -= quantity
	if p.Quantity <= 0 {
		p.Quantity = 0
		p.Status = PackageStatusInactive
	}
}

// Restock adds quantity back. A package that was inactive only because it
// ran out becomes active again; a manually deactivated package with stock
// left stays inactive.
func (p *Package) Restock(quantity int) {
	soldOut := p.Status == PackageStatusInactive && p.Quantity == 0
	p.Quantity += quantity
	if soldOut && p.Quantity > 0 {
		p.Status = PackageStatusActive
	}
}
