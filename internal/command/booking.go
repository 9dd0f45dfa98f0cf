package command

import (
	"context"
	"fmt"
	"time"

	"github.com/get-eventually/booking/command"
	"github.com/get-eventually/booking/internal/domain/booking"
)

// CreateBooking requests a new Booking for a user.
type CreateBooking struct {
	ID        booking.ID
	UserID    int
	StartDate time.Time
	EndDate   time.Time
	Items     []booking.Item
	Notes     *string
}

// UpdateBooking changes dates, accommodations and notes of a Booking.
type UpdateBooking struct {
	ID           booking.ID
	StartDate    time.Time
	EndDate      time.Time
	Items        []booking.Item
	Notes        *string
	ChangeReason *string
}

// ConfirmBooking confirms a pending Booking.
type ConfirmBooking struct{ ID booking.ID }

// AcceptBooking accepts a pending Booking.
type AcceptBooking struct{ ID booking.ID }

// RejectBooking rejects a pending Booking.
type RejectBooking struct{ ID booking.ID }

// CancelBooking cancels a Booking.
type CancelBooking struct{ ID booking.ID }

func (CreateBooking) Name() string  { return "CreateBooking" }
func (UpdateBooking) Name() string  { return "UpdateBooking" }
func (ConfirmBooking) Name() string { return "ConfirmBooking" }
func (AcceptBooking) Name() string  { return "AcceptBooking" }
func (RejectBooking) Name() string  { return "RejectBooking" }
func (CancelBooking) Name() string  { return "CancelBooking" }

var (
	_ command.Handler[CreateBooking]  = CreateBookingHandler{}
	_ command.Handler[UpdateBooking]  = UpdateBookingHandler{}
	_ command.Handler[ConfirmBooking] = ConfirmBookingHandler{}
	_ command.Handler[AcceptBooking]  = AcceptBookingHandler{}
	_ command.Handler[RejectBooking]  = RejectBookingHandler{}
	_ command.Handler[CancelBooking]  = CancelBookingHandler{}
)

// CreateBookingHandler is the Command Handler for CreateBooking commands.
type CreateBookingHandler struct {
	Clock      func() time.Time
	Repository booking.Repository
}

// Handle implements command.Handler.
func (h CreateBookingHandler) Handle(ctx context.Context, cmd command.Envelope[CreateBooking]) error {
	b, err := booking.Create(
		cmd.Message.ID,
		cmd.Message.UserID,
		cmd.Message.StartDate,
		cmd.Message.EndDate,
		cmd.Message.Items,
		cmd.Message.Notes,
		h.Clock(),
	)
	if err != nil {
		return fmt.Errorf("command.CreateBooking: failed to create new Booking, %w", err)
	}

	if err := h.Repository.Save(ctx, b); err != nil {
		return fmt.Errorf("command.CreateBooking: failed to save new Booking to repository, %w", err)
	}

	return nil
}

// UpdateBookingHandler is the Command Handler for UpdateBooking commands.
type UpdateBookingHandler struct {
	Clock      func() time.Time
	Repository booking.Repository
}

// Handle implements command.Handler.
func (h UpdateBookingHandler) Handle(ctx context.Context, cmd command.Envelope[UpdateBooking]) error {
	msg := cmd.Message

	return update(ctx, h.Repository, msg.Name(), msg.ID, func(b *booking.Booking) error {
		return b.UpdateBooking(msg.StartDate, msg.EndDate, msg.Items, msg.Notes, msg.ChangeReason, h.Clock())
	})
}

// ConfirmBookingHandler is the Command Handler for ConfirmBooking commands.
type ConfirmBookingHandler struct {
	Clock      func() time.Time
	Repository booking.Repository
}

// Handle implements command.Handler.
func (h ConfirmBookingHandler) Handle(ctx context.Context, cmd command.Envelope[ConfirmBooking]) error {
	return update(ctx, h.Repository, cmd.Message.Name(), cmd.Message.ID, func(b *booking.Booking) error {
		return b.Confirm(h.Clock())
	})
}

// AcceptBookingHandler is the Command Handler for AcceptBooking commands.
type AcceptBookingHandler struct {
	Clock      func() time.Time
	Repository booking.Repository
}

// Handle implements command.Handler.
func (h AcceptBookingHandler) Handle(ctx context.Context, cmd command.Envelope[AcceptBooking]) error {
	return update(ctx, h.Repository, cmd.Message.Name(), cmd.Message.ID, func(b *booking.Booking) error {
		return b.Accept(h.Clock())
	})
}

// RejectBookingHandler is the Command Handler for RejectBooking commands.
type RejectBookingHandler struct {
	Clock      func() time.Time
	Repository booking.Repository
}

// Handle implements command.Handler.
func (h RejectBookingHandler) Handle(ctx context.Context, cmd command.Envelope[RejectBooking]) error {
	return update(ctx, h.Repository, cmd.Message.Name(), cmd.Message.ID, func(b *booking.Booking) error {
		return b.Reject(h.Clock())
	})
}

// CancelBookingHandler is the Command Handler for CancelBooking commands.
type CancelBookingHandler struct {
	Clock      func() time.Time
	Repository booking.Repository
}

// Handle implements command.Handler.
func (h CancelBookingHandler) Handle(ctx context.Context, cmd command.Envelope[CancelBooking]) error {
	return update(ctx, h.Repository, cmd.Message.Name(), cmd.Message.ID, func(b *booking.Booking) error {
		return b.Cancel(h.Clock())
	})
}
