// Package readmodel contains the denormalized, query-optimized views of
// Bookings and Sleeping Accommodations, the mappers building them from the
// Aggregate Roots, and their in-memory and PostgreSQL stores.
package readmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/version"
)

// Model is implemented by every Read Model, so that stores can key them
// and refuse stale overwrites.
type Model interface {
	Key() string
	AppliedVersion() version.Version
}

// Booking is the Read Model of a Booking, with the owner display data resolved.
type Booking struct {
	ID               uuid.UUID       `json:"id"`
	UserID           int             `json:"userId"`
	UserName         string          `json:"userName"`
	UserEmail        string          `json:"userEmail"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	Status           booking.Status  `json:"status"`
	Notes            *string         `json:"notes,omitempty"`
	Items            []booking.Item  `json:"items"`
	TotalPersons     int             `json:"totalPersons"`
	NumberOfNights   int             `json:"numberOfNights"`
	CreatedAt        time.Time       `json:"createdAt"`
	ChangedAt        *time.Time      `json:"changedAt,omitempty"`
	LastEventVersion version.Version `json:"lastEventVersion"`
}

// Key implements the Model interface.
func (b Booking) Key() string { return b.ID.String() }

// AppliedVersion implements the Model interface.
func (b Booking) AppliedVersion() version.Version { return b.LastEventVersion }

// Accommodation is the Read Model of a Sleeping Accommodation.
type Accommodation struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Type             accommodation.Kind `json:"type"`
	MaxCapacity      int                `json:"maxCapacity"`
	IsActive         bool               `json:"isActive"`
	CreatedAt        time.Time          `json:"createdAt"`
	ChangedAt        *time.Time         `json:"changedAt,omitempty"`
	LastEventVersion version.Version    `json:"lastEventVersion"`
}

// Key implements the Model interface.
func (a Accommodation) Key() string { return a.ID.String() }

// AppliedVersion implements the Model interface.
func (a Accommodation) AppliedVersion() version.Version { return a.LastEventVersion }
