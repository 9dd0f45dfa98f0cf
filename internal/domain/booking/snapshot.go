package booking

import (
	"slices"
	"time"

	"github.com/get-eventually/booking/serde"
)

// State is the serializable representation of a Booking, used for snapshots.
type State struct {
	ID        ID         `json:"id"`
	UserID    int        `json:"userId"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	Items     []Item     `json:"bookingItems"`
	Notes     *string    `json:"notes,omitempty"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	ChangedAt *time.Time `json:"changedAt,omitempty"`
}

func toState(b *Booking) (State, error) {
	return State{
		ID:        b.id,
		UserID:    b.userID,
		StartDate: b.startDate,
		EndDate:   b.endDate,
		Items:     slices.Clone(b.items),
		Notes:     clonePtr(b.notes),
		Status:    b.status,
		CreatedAt: b.createdAt,
		ChangedAt: clonePtr(b.changedAt),
	}, nil
}

func fromState(state State) (*Booking, error) {
	return &Booking{
		id:        state.ID,
		userID:    state.UserID,
		startDate: state.StartDate,
		endDate:   state.EndDate,
		items:     slices.Clone(state.Items),
		notes:     clonePtr(state.Notes),
		status:    state.Status,
		createdAt: state.CreatedAt,
		changedAt: clonePtr(state.ChangedAt),
	}, nil
}

// SnapshotSerde serializes the Booking state to JSON, and back.
//
// The Aggregate version is not part of the state: it is stored alongside
// the snapshot.
var SnapshotSerde = serde.Chain[*Booking, State, []byte](
	serde.FuseFuncs(toState, fromState),
	serde.NewStrictJSON(func() State { return State{} }),
)
