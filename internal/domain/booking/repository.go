package booking

import (
	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
)

type (
	Getter     = aggregate.Getter[ID, *Booking]
	Saver      = aggregate.Saver[ID, *Booking]
	Repository = aggregate.Repository[ID, *Booking]
)

// RegisterEvents adds all the Booking Domain Events to the Registry.
func RegisterEvents(r *event.Registry) error {
	for _, register := range []func(*event.Registry) error{
		event.Register[WasCreated],
		event.Register[WasUpdated],
		event.Register[DateRangeWasChanged],
		event.Register[AccommodationsWereChanged],
		event.Register[NotesWereChanged],
		event.Register[WasConfirmed],
		event.Register[WasAccepted],
		event.Register[WasRejected],
		event.Register[WasCancelled],
	} {
		if err := register(r); err != nil {
			return err
		}
	}

	return nil
}
