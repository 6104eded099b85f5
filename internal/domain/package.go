package domain

import (
	"strings"
	"time"
)

// Package is a purchasable ticket tier for one event occurrence with finite
// capacity. Remaining is mutated only through the inventory repository's
// conditional updates, never assigned directly.
type Package struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	UnitPrice float64   `json:"unit_price"`
	Total     int       `json:"total"`
	Remaining int       `json:"remaining"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates package fields on create
func (p *Package) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidPackageID
	}
	if p.UnitPrice < 0 {
		return ErrInvalidAmount
	}
	if p.Total < 0 || p.Remaining < 0 || p.Remaining > p.Total {
		return ErrInvalidQuantity
	}
	return nil
}

// Sold returns the number of tickets currently reserved or sold.
func (p *Package) Sold() int {
	return p.Total - p.Remaining
}
