package accommodation

// AggregateType is the stable label of the Sleeping Accommodation Aggregate.
const AggregateType = "SleepingAccommodationAggregate"

// WasCreated is recorded when a new Sleeping Accommodation is added to the inventory.
type WasCreated struct {
	AccommodationID ID     `json:"sleepingAccommodationId"`
	Name            string `json:"name"`
	Type            Kind   `json:"type"`
	MaxCapacity     int    `json:"maxCapacity"`
	IsActive        bool   `json:"isActive"`
}

// WasUpdated is recorded when the details of a Sleeping Accommodation change.
type WasUpdated struct {
	AccommodationID ID     `json:"sleepingAccommodationId"`
	Name            string `json:"name"`
	Type            Kind   `json:"type"`
	MaxCapacity     int    `json:"maxCapacity"`
}

// WasDeactivated is recorded when a Sleeping Accommodation is taken out of the inventory.
type WasDeactivated struct {
	AccommodationID ID `json:"sleepingAccommodationId"`
}

// WasReactivated is recorded when a deactivated Sleeping Accommodation
// is put back in the inventory.
type WasReactivated struct {
	AccommodationID ID `json:"sleepingAccommodationId"`
}

func (WasCreated) Name() string     { return "SleepingAccommodationCreated" }
func (WasUpdated) Name() string     { return "SleepingAccommodationUpdated" }
func (WasDeactivated) Name() string { return "SleepingAccommodationDeactivated" }
func (WasReactivated) Name() string { return "SleepingAccommodationReactivated" }

func (evt WasCreated) AggregateID() string     { return evt.AccommodationID.String() }
func (evt WasUpdated) AggregateID() string     { return evt.AccommodationID.String() }
func (evt WasDeactivated) AggregateID() string { return evt.AccommodationID.String() }
func (evt WasReactivated) AggregateID() string { return evt.AccommodationID.String() }

func (WasCreated) AggregateType() string     { return AggregateType }
func (WasUpdated) AggregateType() string     { return AggregateType }
func (WasDeactivated) AggregateType() string { return AggregateType }
func (WasReactivated) AggregateType() string { return AggregateType }
