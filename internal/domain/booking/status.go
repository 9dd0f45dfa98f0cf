package booking

// Status is the lifecycle state of a Booking.
type Status string

// All the possible Booking statuses. A Booking is always created Pending.
const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusAccepted  Status = "Accepted"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

func (s Status) String() string { return string(s) }

// IsModifiable reports whether dates, accommodations and notes of a Booking
// with this status can still be changed.
func (s Status) IsModifiable() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusAccepted:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}
