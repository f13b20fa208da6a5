package domain

import "time"

// Store is one retailer whose catalog we track. Exactly one store is marked
// primary; everyone else is a competitor.
type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	Location  string    `json:"location,omitempty"`
	StoreType string    `json:"storeType,omitempty"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
}

// PricePoint is one observed price for a product.
type PricePoint struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	Price     float64   `json:"price"`
	SalePrice *float64  `json:"salePrice,omitempty"`
	IsOnSale  bool      `json:"isOnSale"`
	ScrapedAt time.Time `json:"scrapedAt"`
}

// Effective returns the price a shopper actually pays right now.
func (p PricePoint) Effective() float64 {
	if p.IsOnSale && p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}

// StoredMatch is a persisted ProductMatch with its run bookkeeping.
type StoredMatch struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"runId"`
	Match     ProductMatch `json:"match"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}
