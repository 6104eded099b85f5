package domain

import (
	"strings"
	"time"
)

// ReferenceKind identifies a reference-entity collection. The propagator
// registry is keyed by kind.
type ReferenceKind string

const (
	ReferenceKindCategory    ReferenceKind = "category"
	ReferenceKindCity        ReferenceKind = "city"
	ReferenceKindOfferType   ReferenceKind = "offer_type"
	ReferenceKindLoyaltyType ReferenceKind = "loyalty_type"
)

// IsValid checks if the kind is a known reference collection
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceKindCategory, ReferenceKindCity, ReferenceKindOfferType, ReferenceKindLoyaltyType:
		return true
	}
	return false
}

// ReferenceEntity is the authoritative record for a name/status/icon that
// aggregate documents embed read-only copies of. ID is immutable and is the
// join key used when pushing changes into embedded copies.
type ReferenceEntity struct {
	ID        string        `json:"id"`
	Kind      ReferenceKind `json:"kind"`
	Name      string        `json:"name"`
	Icon      string        `json:"icon,omitempty"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Validate validates reference entity fields
func (r *ReferenceEntity) Validate() error {
	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Name) == "" || !r.Kind.IsValid() {
		return ErrInvalidReference
	}
	return nil
}

// DenormalizedFieldsEqual reports whether the fields copied into aggregate
// documents are unchanged between two versions of the same entity. The
// propagator no-ops when this holds.
func (r *ReferenceEntity) DenormalizedFieldsEqual(other *ReferenceEntity) bool {
	if other == nil {
		return false
	}
	return r.Name == other.Name && r.Icon == other.Icon && r.Active == other.Active
}

// EmbeddedRef is the denormalized copy of a ReferenceEntity carried inside an
// aggregate document's array element, keyed by the source entity's ID.
type EmbeddedRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `json:"active"`
}

// EmbedFrom builds the embedded copy of a reference entity.
func EmbedFrom(r *ReferenceEntity) EmbeddedRef {
	return EmbeddedRef{ID: r.ID, Name: r.Name, Icon: r.Icon, Active: r.Active}
}

// Venue is an aggregate document embedding reference copies so reads never
// need joins.
type Venue struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Address    string        `json:"address,omitempty"`
	City       *EmbeddedRef  `json:"city,omitempty"`
	Categories []EmbeddedRef `json:"categories,omitempty"`
	OfferTypes []EmbeddedRef `json:"offer_types,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// DocID implements store.Aggregate
func (v *Venue) DocID() string { return v.ID }

// Event is an aggregate document for a ticketed occurrence.
type Event struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	VenueID      string        `json:"venue_id"`
	StartsAt     time.Time     `json:"starts_at"`
	EndsAt       time.Time     `json:"ends_at"`
	Categories   []EmbeddedRef `json:"categories,omitempty"`
	LoyaltyTypes []EmbeddedRef `json:"loyalty_types,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DocID implements store.Aggregate
func (e *Event) DocID() string { return e.ID }
