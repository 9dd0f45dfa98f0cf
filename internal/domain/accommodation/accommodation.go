// Package accommodation contains the Sleeping Accommodation Aggregate:
// a room, tent or camper spot that can be booked, with a maximum capacity.
package accommodation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/serde"
)

// ID is the unique identifier of a Sleeping Accommodation.
type ID uuid.UUID

func (id ID) String() string { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

// ParseID parses the string representation of a Sleeping Accommodation id.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("accommodation.ParseID: invalid id, %w", err)
	}

	return ID(id), nil
}

// Kind is the type of a Sleeping Accommodation.
type Kind string

// Known Sleeping Accommodation types.
const (
	Room   Kind = "Room"
	Tent   Kind = "Tent"
	Camper Kind = "Camper"
	Other  Kind = "Other"
)

func (k Kind) valid() bool {
	switch k {
	case Room, Tent, Camper, Other:
		return true
	default:
		return false
	}
}

// Type is the aggregate.Type of the Sleeping Accommodation Aggregate.
var Type = aggregate.Type[ID, *Accommodation]{
	Name:    AggregateType,
	Factory: func() *Accommodation { return new(Accommodation) },
}

// Accommodation is the Sleeping Accommodation Aggregate Root.
type Accommodation struct {
	aggregate.BaseRoot

	id          ID
	name        string
	kind        Kind
	maxCapacity int
	active      bool
	createdAt   time.Time
	changedAt   *time.Time
}

// AggregateID implements aggregate.Root.
func (a *Accommodation) AggregateID() ID { return a.id }

func (a *Accommodation) Name() string          { return a.name }
func (a *Accommodation) Kind() Kind            { return a.kind }
func (a *Accommodation) MaxCapacity() int      { return a.maxCapacity }
func (a *Accommodation) IsActive() bool        { return a.active }
func (a *Accommodation) CreatedAt() time.Time  { return a.createdAt }
func (a *Accommodation) ChangedAt() *time.Time {
	if a.changedAt == nil {
		return nil
	}

	changedAt := *a.changedAt

	return &changedAt
}

// Apply implements aggregate.Aggregate.
func (a *Accommodation) Apply(evt event.Envelope) error {
	occurredAt := evt.OccurredAt

	switch msg := evt.Message.(type) {
	case WasCreated:
		a.id = msg.AccommodationID
		a.name = msg.Name
		a.kind = msg.Type
		a.maxCapacity = msg.MaxCapacity
		a.active = msg.IsActive
		a.createdAt = occurredAt

		return nil

	case WasUpdated:
		a.name = msg.Name
		a.kind = msg.Type
		a.maxCapacity = msg.MaxCapacity

	case WasDeactivated:
		a.active = false

	case WasReactivated:
		a.active = true

	default:
		return fmt.Errorf("accommodation.Accommodation.Apply: %w, %T", aggregate.ErrUnknownEvent, msg)
	}

	a.changedAt = &occurredAt

	return nil
}

func validateDetails(name string, kind Kind, maxCapacity int) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	if !kind.valid() {
		return &InvalidKindError{Kind: kind}
	}

	if maxCapacity <= 0 {
		return &InvalidCapacityError{Capacity: maxCapacity}
	}

	return nil
}

// Create adds a new, active Sleeping Accommodation.
func Create(id ID, name string, kind Kind, maxCapacity int, now time.Time) (*Accommodation, error) {
	wrapErr := func(err error) error {
		return fmt.Errorf("accommodation.Create: failed to create new Accommodation, %w", err)
	}

	if uuid.UUID(id) == uuid.Nil {
		return nil, wrapErr(ErrEmptyID)
	}

	if err := validateDetails(name, kind, maxCapacity); err != nil {
		return nil, wrapErr(err)
	}

	var accommodation Accommodation

	if err := aggregate.RecordThat[ID](&accommodation, event.ToEnvelope(WasCreated{
		AccommodationID: id,
		Name:            name,
		Type:            kind,
		MaxCapacity:     maxCapacity,
		IsActive:        true,
	}).WithOccurredAt(now)); err != nil {
		return nil, fmt.Errorf("accommodation.Create: failed to apply domain event, %w", err)
	}

	return &accommodation, nil
}

// UpdateDetails changes name, type and capacity.
//
// Nothing is recorded if none of them changes.
func (a *Accommodation) UpdateDetails(name string, kind Kind, maxCapacity int, now time.Time) error {
	if err := validateDetails(name, kind, maxCapacity); err != nil {
		return fmt.Errorf("accommodation.UpdateDetails: failed to update details, %w", err)
	}

	if a.name == name && a.kind == kind && a.maxCapacity == maxCapacity {
		return nil
	}

	if err := aggregate.RecordThat[ID](a, event.ToEnvelope(WasUpdated{
		AccommodationID: a.id,
		Name:            name,
		Type:            kind,
		MaxCapacity:     maxCapacity,
	}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("accommodation.UpdateDetails: failed to apply domain event, %w", err)
	}

	return nil
}

// Deactivate takes an active Sleeping Accommodation out of the inventory.
func (a *Accommodation) Deactivate(now time.Time) error {
	if !a.active {
		return fmt.Errorf("accommodation.Deactivate: %w", &StateError{ID: a.id, Active: false})
	}

	if err := aggregate.RecordThat[ID](a, event.ToEnvelope(WasDeactivated{AccommodationID: a.id}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("accommodation.Deactivate: failed to apply domain event, %w", err)
	}

	return nil
}

// Reactivate puts a deactivated Sleeping Accommodation back in the inventory.
func (a *Accommodation) Reactivate(now time.Time) error {
	if a.active {
		return fmt.Errorf("accommodation.Reactivate: %w", &StateError{ID: a.id, Active: true})
	}

	if err := aggregate.RecordThat[ID](a, event.ToEnvelope(WasReactivated{AccommodationID: a.id}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("accommodation.Reactivate: failed to apply domain event, %w", err)
	}

	return nil
}

type (
	Getter     = aggregate.Getter[ID, *Accommodation]
	Saver      = aggregate.Saver[ID, *Accommodation]
	Repository = aggregate.Repository[ID, *Accommodation]
)

// RegisterEvents adds all the Sleeping Accommodation Domain Events to the Registry.
func RegisterEvents(r *event.Registry) error {
	for _, register := range []func(*event.Registry) error{
		event.Register[WasCreated],
		event.Register[WasUpdated],
		event.Register[WasDeactivated],
		event.Register[WasReactivated],
	} {
		if err := register(r); err != nil {
			return err
		}
	}

	return nil
}

type state struct {
	ID          ID         `json:"id"`
	Name        string     `json:"name"`
	Type        Kind       `json:"type"`
	MaxCapacity int        `json:"maxCapacity"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	ChangedAt   *time.Time `json:"changedAt,omitempty"`
}

// SnapshotSerde serializes the Sleeping Accommodation state to JSON, and back.
var SnapshotSerde = serde.Chain[*Accommodation, state, []byte](
	serde.FuseFuncs(
		func(a *Accommodation) (state, error) {
			return state{
				ID:          a.id,
				Name:        a.name,
				Type:        a.kind,
				MaxCapacity: a.maxCapacity,
				IsActive:    a.active,
				CreatedAt:   a.createdAt,
				ChangedAt:   a.changedAt,
			}, nil
		},
		func(s state) (*Accommodation, error) {
			return &Accommodation{
				id:          s.ID,
				name:        s.Name,
				kind:        s.Type,
				maxCapacity: s.MaxCapacity,
				active:      s.IsActive,
				createdAt:   s.CreatedAt,
				changedAt:   s.ChangedAt,
			}, nil
		},
	),
	serde.NewStrictJSON(func() state { return state{} }),
)
