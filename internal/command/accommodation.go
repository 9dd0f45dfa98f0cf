package command

import (
	"context"
	"fmt"
	"time"

	"github.com/get-eventually/booking/command"
	"github.com/get-eventually/booking/internal/domain/accommodation"
)

// CreateAccommodation adds a new Sleeping Accommodation to the inventory.
type CreateAccommodation struct {
	ID          accommodation.ID
	DisplayName string
	Type        accommodation.Kind
	MaxCapacity int
}

// UpdateAccommodation changes the details of a Sleeping Accommodation.
type UpdateAccommodation struct {
	ID          accommodation.ID
	DisplayName string
	Type        accommodation.Kind
	MaxCapacity int
}

// DeactivateAccommodation takes a Sleeping Accommodation out of the inventory.
type DeactivateAccommodation struct{ ID accommodation.ID }

// ReactivateAccommodation puts a Sleeping Accommodation back in the inventory.
type ReactivateAccommodation struct{ ID accommodation.ID }

func (CreateAccommodation) Name() string     { return "CreateAccommodation" }
func (UpdateAccommodation) Name() string     { return "UpdateAccommodation" }
func (DeactivateAccommodation) Name() string { return "DeactivateAccommodation" }
func (ReactivateAccommodation) Name() string { return "ReactivateAccommodation" }

// AccommodationHandler handles all the Sleeping Accommodation Commands.
type AccommodationHandler struct {
	Clock      func() time.Time
	Repository accommodation.Repository
}

// Create returns the Command Handler for CreateAccommodation commands.
func (h AccommodationHandler) Create() command.Handler[CreateAccommodation] {
	return command.HandlerFunc[CreateAccommodation](func(ctx context.Context, cmd command.Envelope[CreateAccommodation]) error {
		msg := cmd.Message

		a, err := accommodation.Create(msg.ID, msg.DisplayName, msg.Type, msg.MaxCapacity, h.Clock())
		if err != nil {
			return fmt.Errorf("command.CreateAccommodation: failed to create new Accommodation, %w", err)
		}

		if err := h.Repository.Save(ctx, a); err != nil {
			return fmt.Errorf("command.CreateAccommodation: failed to save new Accommodation to repository, %w", err)
		}

		return nil
	})
}

// Update returns the Command Handler for UpdateAccommodation commands.
func (h AccommodationHandler) Update() command.Handler[UpdateAccommodation] {
	return command.HandlerFunc[UpdateAccommodation](func(ctx context.Context, cmd command.Envelope[UpdateAccommodation]) error {
		msg := cmd.Message

		return update(ctx, h.Repository, msg.Name(), msg.ID, func(a *accommodation.Accommodation) error {
			return a.UpdateDetails(msg.DisplayName, msg.Type, msg.MaxCapacity, h.Clock())
		})
	})
}

// Deactivate returns the Command Handler for DeactivateAccommodation commands.
func (h AccommodationHandler) Deactivate() command.Handler[DeactivateAccommodation] {
	return command.HandlerFunc[DeactivateAccommodation](func(ctx context.Context, cmd command.Envelope[DeactivateAccommodation]) error {
		return update(ctx, h.Repository, cmd.Message.Name(), cmd.Message.ID, func(a *accommodation.Accommodation) error {
			return a.Deactivate(h.Clock())
		})
	})
}

// Reactivate returns the Command Handler for ReactivateAccommodation commands.
func (h AccommodationHandler) Reactivate() command.Handler[ReactivateAccommodation] {
	return command.HandlerFunc[ReactivateAccommodation](func(ctx context.Context, cmd command.Envelope[ReactivateAccommodation]) error {
		return update(ctx, h.Repository, cmd.Message.Name(), cmd.Message.ID, func(a *accommodation.Accommodation) error {
			return a.Reactivate(h.Clock())
		})
	})
}
